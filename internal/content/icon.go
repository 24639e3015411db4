package content

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Icon is the closed set of glyphs the browser knows how to draw.
type Icon string

const (
	IconShield        Icon = "shield"
	IconShieldCheck   Icon = "shield-check"
	IconIndianRupee   Icon = "indian-rupee"
	IconMessageCircle Icon = "message-circle"
	IconCalendarCheck Icon = "calendar-check"
	IconMapPin        Icon = "map-pin"
	IconUserCheck     Icon = "user-check"
	IconClock         Icon = "clock"
	IconCreditCard    Icon = "credit-card"
	IconMessageSquare Icon = "message-square"
)

// DefaultIcon is drawn for any name without a mapping.
const DefaultIcon = IconShield

var icons = map[string]Icon{
	"shield":        IconShield,
	"shieldcheck":   IconShieldCheck,
	"indianrupee":   IconIndianRupee,
	"messagecircle": IconMessageCircle,
	"calendarcheck": IconCalendarCheck,
	"mappin":        IconMapPin,
	"usercheck":     IconUserCheck,
	"clock":         IconClock,
	"creditcard":    IconCreditCard,
	"messagesquare": IconMessageSquare,
}

// IconFor maps an identifier such as "ShieldCheck", "shield-check" or
// "shield_check" to its Icon.
func IconFor(name string) Icon {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	if ic, ok := icons[key]; ok {
		return ic
	}
	return DefaultIcon
}

func (i *Icon) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*i = IconFor(s)
	return nil
}
