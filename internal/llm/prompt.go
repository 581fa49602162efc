package llm

// DefaultPrompt instructs the model to pull the payment date and amount out
// of a receipt and answer with bare JSON, or the word "erro" when it cannot.
// The doubled braces in the examples are intentional: models echo them back
// and the interpreter collapses them.
const DefaultPrompt = `
Extrair de um dado texto, utilizando exclusivamente as informações que constam no texto fornecido, sem inventar, com o conteúdo comprovantes de pagamento. Siga as instruções abaixo:

1. Data do pagamento
2. Valor pago
3. Utilize a técnica chain of thoughts reasoning
4. O conteúdo do comprovante será colocado entre quatro backticks
5. A resposta deve ser em formato JSON, com as chaves data_pagamento, contendo a data em formato 'yyyy-mm-aa' e valor_pagamento, contendo o valor pago em formato ponto flutuante. A resposta deve conter somente o JSON, mais nada.
6. Caso não seja possível extrair as informações, responda apenas 'erro'

Exemplo de resposta1:

{{
  "data_pagamento": "2023-02-17",
  "valor_pagamento": 10799.10
}}

Exemplo de resposta 2:

{{
    "data_pagamento": "2020-08-20",
    "valor_pagamento": 41.00
}}

Conteúdo do comprovante:
`
