package extract

// extractionPrompt instructs the model to return a strict JSON array of
// transactions in the canonical four-field shape. It is appended as the last
// content part of every inference request.
const extractionPrompt = `
You are a financial data parser. Analyze the following raw text or attached document. Extract all transactions found in the text/document.

**STRICT OUTPUT RULE: RETURN ONLY A JSON ARRAY.**

IMPORTANT:
1. **If you find transactions,** return them as a JSON array (starting with '[' and ending with ']').
2. **If you find NO transactions,** return an empty JSON array: [].

TRANSACTION RULES:
1. **Amount Sign**:
    - Use a **POSITIVE** number for income/credits/money in.
    - Use a **NEGATIVE** number for expenses/debits/money out.
2. **Date Format**: Ensure the date is strictly in 'YYYY-MM-DD' format.
3. **Fields**: Each transaction must strictly adhere to this JSON structure:
{
  "date": "YYYY-MM-DD",
  "description": "transaction description",
  "amount": number,
  "category": "category name" // Infer a logical category (e.g., 'Groceries', 'Salary', 'Transfer')
}

Return ONLY the JSON array. Do not use markdown like 'json' or backticks.`
