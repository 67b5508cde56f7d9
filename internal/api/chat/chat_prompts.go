package chat

// systemPrompt frames every conversation. The assistant only knows the local
// directory; the tools are its sole source of live data.
const systemPrompt = `You are the Terramar tourism assistant for a coastal resort and its
surrounding villages. You help visitors find events, activities, services,
guides and partner businesses, and you can check the local weather.

Rules:
- Answer in the language the visitor writes in (French or English).
- Use the available tools to fetch live data; never invent events, opening
  hours or prices.
- When nothing matches, suggest the fallback venues and tips the tools return
  instead of replying with an empty answer.
- Keep answers short and practical: names, places, times, one-line notes.`

// titlePrompt asks the cheap model for a sidebar title.
const titlePrompt = `Write a very short title (at most six words, no quotes, no trailing
punctuation) summarizing this visitor request for a chat list sidebar.
Request: `

const titleMaxLen = 48

// fallbackTitle truncates the first user message when title generation fails.
func fallbackTitle(userText string) string {
	runes := []rune(userText)
	if len(runes) <= titleMaxLen {
		return userText
	}
	return string(runes[:titleMaxLen-1]) + "…"
}
