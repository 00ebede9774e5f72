package ai

import "fmt"

const systemPrompt = `You are an expert email HTML/CSS developer. You create beautiful, responsive email templates that work across all email clients (Gmail, Outlook, Apple Mail, etc.).

IMPORTANT RULES:
1. You ONLY output valid HTML and CSS code for email newsletters - no explanations, no markdown, just code.
2. Use inline styles AND <style> tags for CSS (email clients need both).
3. Use table-based layouts for email compatibility.
4. Include responsive media queries for mobile (max-width: 620px).
5. Use web-safe fonts and fallbacks.
6. All colors should be hex codes.
7. Include proper email DOCTYPE and meta tags.
8. Support dark mode with prefers-color-scheme media query.
9. Use PNG images from CDN (like flaticon) for icons, NOT SVG (email clients don't support inline SVG).
10. Keep personalization placeholders such as {{name}}, {{email}}, {{site_url}} and {{unsubscribe}} intact.

OUTPUT FORMAT:
Return the code in this exact format:
` + markerHTML + `
[Your HTML code here]
` + markerCSS + `
[Your CSS code here - this goes in the email's <style> tag]
` + markerEnd + `

The HTML should be a complete email template with the CSS embedded in a <style> tag in the <head>.
The CSS section is for additional styles that might be useful.`

const createPrompt = `Create a completely new email template based on this request: %s

Design guidelines:
- Use a dark purple theme (#0a0a0f background, #8b5cf6 primary color, #a78bfa accent)
- Modern, clean design
- Include header, content sections, call-to-action buttons, and footer
- Make it mobile responsive`

const editPrompt = `Here is the current email template:

CURRENT HTML:
%s

CURRENT CSS:
%s

User request: %s

Please modify the template according to the user's request. Keep the overall structure but make the requested changes.`

func userPrompt(req Request) string {
	if req.Mode == ModeEdit {
		return fmt.Sprintf(editPrompt, req.CurrentHTML, req.CurrentCSS, req.Prompt)
	}
	return fmt.Sprintf(createPrompt, req.Prompt)
}
