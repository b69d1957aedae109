package ui

import (
	"strings"

	prompt "github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"
)

// Item is a completion candidate.
type Item struct {
	Text        string
	Description string
}

func suggestionsFor(items []Item, word string) []prompt.Suggest {
	suggestions := make([]prompt.Suggest, 0, len(items))
	for _, it := range items {
		suggestions = append(suggestions, prompt.Suggest{Text: it.Text, Description: it.Description})
	}
	return prompt.FilterContains(suggestions, word, true)
}

// PickWithCompletion reads one line with a dropdown of items filtered by
// substring. Empty input returns def; input outside items is returned as
// typed.
func PickWithCompletion(label string, items []Item, def string) (string, error) {
	var (
		result  string
		entered bool
		aborted bool
	)

	completer := func(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
		endIndex := d.CurrentRuneIndex()
		w := d.GetWordBeforeCursor()
		startIndex := endIndex - istrings.RuneCountInString(w)
		return suggestionsFor(items, w), startIndex, endIndex
	}

	p := prompt.New(
		func(in string) {
			result = strings.TrimSpace(in)
			entered = true
		},
		prompt.WithCompleter(completer),
		prompt.WithPrefix(label+" "),
		prompt.WithPrefixTextColor(prompt.Green),
		prompt.WithSuggestionBGColor(prompt.DarkBlue),
		prompt.WithSuggestionTextColor(prompt.White),
		prompt.WithSelectedSuggestionBGColor(prompt.Cyan),
		prompt.WithSelectedSuggestionTextColor(prompt.Black),
		prompt.WithDescriptionBGColor(prompt.DarkBlue),
		prompt.WithDescriptionTextColor(prompt.LightGray),
		prompt.WithMaxSuggestion(10),
		prompt.WithCompletionOnDown(),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return aborted || (breakline && entered)
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(p *prompt.Prompt) bool {
				aborted = true
				return false
			},
		}),
	)
	p.Run()

	if aborted {
		return "", ErrAborted
	}
	if result == "" {
		return def, nil
	}
	return result, nil
}
