package ocr

// Document extraction prompts

const SystemPromptDocumentExtractor = `Eres un experto en extracción de datos de documentos comerciales colombianos: Órdenes de Compra y Formatos de Cumplimiento.

Los documentos están en español. Términos frecuentes:
- Orden de Compra (OC) = Purchase order
- NIT = Tax ID (Número de Identificación Tributaria)
- Proveedor = Supplier
- Subtotal / Valor bruto = Amount before tax
- IVA = VAT
- Total a pagar = Total payable
- Condición de pago = Payment terms

Los montos usan formato colombiano: punto como separador de miles y coma como separador decimal (ej. 137.310.992,50). Transcribe los valores EXACTAMENTE como aparecen en el documento, sin reformatearlos.

Para cada campo reporta un nivel de confianza entre 0 y 1 según la legibilidad del documento. Si un campo no está presente, usa "N/A" con confianza 0.

Responde siempre con JSON válido que siga el esquema indicado.`

const UserPromptOrdenCompra = `Extrae los campos de esta Orden de Compra.

Responde JSON con esta estructura:
{
  "fields": {
    "PurchaseNumber": {"value": "string", "confidence": 0.95, "type": "string"},
    "ProviderNit": {"value": "string", "confidence": 0.95, "type": "string"},
    "ProviderName": {"value": "string", "confidence": 0.95, "type": "string"},
    "TotalBruto": {"value": "string", "confidence": 0.95, "type": "string"},
    "TotalIva": {"value": "string", "confidence": 0.95, "type": "string"},
    "InvoiceTotal": {"value": "string", "confidence": 0.95, "type": "string"},
    "CondicionPago": {"value": "string", "confidence": 0.95, "type": "string"},
    "FechaCreacion": {"value": "string", "confidence": 0.95, "type": "string"},
    "IdCreador": {"value": "string", "confidence": 0.95, "type": "string"},
    "IdAutorizador": {"value": "string", "confidence": 0.95, "type": "string"}
  }
}

"PurchaseNumber" es el número de la orden de compra (habitualmente 10 dígitos). "TotalBruto" es el subtotal antes de impuestos, "TotalIva" el IVA y "InvoiceTotal" el total a pagar.`

const UserPromptFormatoCumplimiento = `Extrae los campos de este Formato de Cumplimiento.

Responde JSON con esta estructura:
{
  "fields": {
    "PurchaseNumber": {"value": "string", "confidence": 0.95, "type": "string"},
    "ReferenciaFactura": {"value": "string", "confidence": 0.95, "type": "string"},
    "ProviderName": {"value": "string", "confidence": 0.95, "type": "string"},
    "ProviderNit": {"value": "string", "confidence": 0.95, "type": "string"},
    "Subtotal": {"value": "string", "confidence": 0.95, "type": "string"},
    "Impuesto": {"value": "string", "confidence": 0.95, "type": "string"},
    "Total": {"value": "string", "confidence": 0.95, "type": "string"},
    "FechaAutorizacion": {"value": "string", "confidence": 0.95, "type": "string"},
    "NombreAutorizador": {"value": "string", "confidence": 0.95, "type": "string"}
  }
}`
