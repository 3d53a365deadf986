package entity

import (
	"strings"
	"unicode/utf8"
)

const maxNameLength = 24

type Player struct {
	ConnectionID string `json:"socketId"`
	Name         string `json:"name"`
	Mark         string `json:"symbol"`
}

func NewPlayer(connectionID, name, mark string) *Player {
	return &Player{
		ConnectionID: connectionID,
		Name:         DisplayName(name, mark),
		Mark:         mark,
	}
}

// DisplayName trims the supplied name and falls back to "Player <mark>" when nothing is left.
func DisplayName(name, mark string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player " + mark
	}

	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}

	return name
}
