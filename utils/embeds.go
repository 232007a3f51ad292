package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"ccasino/models"
)

// Embed colours
const (
	BotColor     = 0xF48FB1
	WinColor     = 0x2ECC71
	LoseColor    = 0xE74C3C
	NeutralColor = 0x95A5A6
)

// CreateBrandedEmbed creates a basic embed with casino branding
func CreateBrandedEmbed(title, description string, color int, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   now.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Cotton Candy Casino",
		},
	}
}

// ForfeitTable lists the catalog with each stake's value under the multiplier
func ForfeitTable(catalog *Catalog, multiplier int64) string {
	if multiplier < 1 {
		multiplier = 1
	}
	var b strings.Builder
	b.WriteString("Forfeit Table\n")
	for _, e := range catalog.ByValue() {
		fmt.Fprintf(&b, "%s (%s): %s chips", e.Key, e.Name, FormatNumber(e.Value*multiplier))
		if e.LockDuration > 0 {
			fmt.Fprintf(&b, ", locked %s", FormatDuration(e.LockDuration))
		}
		b.WriteString("\n")
	}
	if multiplier > 1 {
		fmt.Fprintf(&b, "Bonus round: forfeits are worth %dx this round.\n", multiplier)
	}
	return b.String()
}

// RemovalTable lists what buying out of each lockable forfeit costs
func RemovalTable(catalog *Catalog) string {
	var b strings.Builder
	b.WriteString("Restraint removal: remove <name>\n")
	for _, e := range catalog.ByValue() {
		if _, ok := e.SingleItem(); !ok || e.LockDuration == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s chips\n", e.Key, FormatNumber(e.Value*RemoveCostFactor))
	}
	return b.String()
}

// ScoreboardText renders the leaderboard, one player per line
func ScoreboardText(players []*models.Player) string {
	if len(players) == 0 {
		return "Nobody has played yet."
	}
	var b strings.Builder
	for i, p := range players {
		fmt.Fprintf(&b, "%d. %s (%d): %s chips won\n", i+1, p.DisplayName(), p.ID, FormatNumber(p.Score))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNumber adds thousands separators
func FormatNumber(num int64) string {
	if num < 0 {
		return "-" + FormatNumber(-num)
	}
	str := strconv.FormatInt(num, 10)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(r)
	}

	return result.String()
}
