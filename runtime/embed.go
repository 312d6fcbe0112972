package runtime

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"chat-relay/moderation"
)

//go:embed censored/*
var censoredFolder embed.FS

// NewModeratorFromEmbedded loads the embedded blacklists and builds the
// Aho-Corasick automaton. Done once at boot, before the hub starts.
func NewModeratorFromEmbedded(log *slog.Logger, charReplacement rune) (moderation.Moderator, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll("censored")
	if err != nil {
		return moderation.Moderator{}, err
	}

	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	return moderation.NewModerator(data.Words, charReplacement)
}
