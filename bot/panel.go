package bot

import (
	"fmt"

	"cup-bot/services"
	"cup-bot/utils"
)

// PrestigeEmoji is the reaction that triggers a prestige.
const PrestigeEmoji = "⬆"

// PanelField is one titled section of a panel.
type PanelField struct {
	Name  string
	Value string
}

// Panel is a rich embed posted by the bot.
type Panel struct {
	Title       string
	Description string
	Fields      []PanelField
	Footer      string
	Color       int
}

// PrestigePanel explains prestige and how to trigger it.
func PrestigePanel() Panel {
	threshold := utils.FormatCount(services.PrestigeThreshold)
	return Panel{
		Title:       "Cup Prestige!",
		Description: "Start fresh, but earn more legendary cups as a bonus!",
		Fields: []PanelField{
			{
				Name: "How many cups do I need to prestige?",
				Value: fmt.Sprintf("You need at least %s cups to prestige.\n"+
					"Prestiging with more than %s cups gives no extra bonus.", threshold, threshold),
			},
			{
				Name: "What do I get from prestige?",
				Value: fmt.Sprintf("Without prestige a legendary cup drops about %.1f%% of the time. "+
					"Each prestige adds another 0.1%%, up to %.1f%% at Prestige %d.\n\n"+
					"Each prestige also brings a stronger role colour and a higher spot in the member list!",
					services.LegendaryRate(0)*100, services.LegendaryRate(services.MaxPrestige)*100, services.MaxPrestige),
			},
		},
		Footer: "React with " + PrestigeEmoji + " below to prestige instantly, provided you have the cups.",
		Color:  0xFFA500,
	}
}
