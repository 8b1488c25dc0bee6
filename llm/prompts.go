package llm

import (
	"fmt"
)

func getSystemPrompt() string {
	return `You write copy for cryptocurrency token listings. Your text appears in wallets and block explorers next to the token logo.

Be concise and concrete. Never promise returns, price movement or financial gain. Do not use hashtags, emojis or markdown.`
}

func getTokenDescriptionPrompt(req DescriptionRequest) string {
	return fmt.Sprintf(`Write a description for a newly launched Solana token.

Name: %s
Symbol: %s

Requirements:
- One or two sentences, at most %d characters
- Plain text only, no quotes around the answer
- Mention the token name once`, req.Name, req.Symbol, req.MaxChars)
}
