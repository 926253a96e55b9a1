package service

import (
	"strings"
	"text/template"
)

const promptText = `You are a helpful assistant answering questions based on the uploaded document.
Context:
{{.Context}}

Question:
{{.Question}}

Provide a clear and helpful explanation.`

var promptTmpl = template.Must(template.New("prompt").Parse(promptText))

type promptData struct {
	Context  string
	Question string
}

// contextSeparator joins retrieved chunk texts.
const contextSeparator = "\n\n"

// BuildContext joins the chunk texts in result order.
func BuildContext(texts []string) string {
	return strings.Join(texts, contextSeparator)
}

// RenderPrompt fills the answer prompt with the retrieved context and the question.
func RenderPrompt(context, question string) (string, error) {
	var b strings.Builder
	if err := promptTmpl.Execute(&b, promptData{Context: context, Question: question}); err != nil {
		return "", err
	}
	return b.String(), nil
}
