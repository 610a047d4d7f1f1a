package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizzler/internal/ui/theme"
)

const bannerArt = `
  ██████╗ ██╗   ██╗██╗███████╗███████╗██╗     ███████╗██████╗
 ██╔═══██╗██║   ██║██║╚══███╔╝╚══███╔╝██║     ██╔════╝██╔══██╗
 ██║   ██║██║   ██║██║  ███╔╝   ███╔╝ ██║     █████╗  ██████╔╝
 ██║▄▄ ██║██║   ██║██║ ███╔╝   ███╔╝  ██║     ██╔══╝  ██╔══██╗
 ╚██████╔╝╚██████╔╝██║███████╗███████╗███████╗███████╗██║  ██║
  ╚══▀▀═╝  ╚═════╝ ╚═╝╚══════╝╚══════╝╚══════╝╚══════╝╚═╝  ╚═╝`

const bannerCompact = "Q U I Z Z L E R"

// bannerWidth is the widest line of bannerArt.
const bannerWidth = 64

// RenderBanner returns the QUIZZLER banner styled in the primary color.
// Narrow terminals get the compact form.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
