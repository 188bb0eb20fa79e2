package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/internal/pricing"
)

const catalogRule = "═══════════════════════════════════\n\n"

// FormatCatalog собирает список новел для скачивания: раздел с ценами
// за наличные и раздел с ценами за перевод.
func FormatCatalog(novelas []models.Novela, rates models.Rates, contact string, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("📚 CATÁLOGO DE NOVELAS DISPONIBLES\n")
	b.WriteString("TV a la Carta - Novelas Completas\n\n")
	fmt.Fprintf(&b, "💰 Precio: %s por capítulo\n", Amount(rates.NovelPricePerChapter))
	fmt.Fprintf(&b, "💳 Recargo transferencia: %d%%\n", rates.TransferFeePercentage)
	fmt.Fprintf(&b, "📱 Contacto: +%s\n\n", strings.TrimPrefix(contact, "+"))
	b.WriteString(catalogRule)

	if len(novelas) == 0 {
		b.WriteString("📋 No hay novelas disponibles en este momento.\n")
		b.WriteString("Contacta con el administrador para más información.\n\n")
	} else {
		b.WriteString("💵 PRECIOS EN EFECTIVO:\n")
		b.WriteString(catalogRule)

		for i, n := range novelas {
			base := int64(n.Chapters) * rates.NovelPricePerChapter

			writeNovela(&b, i+1, n)
			fmt.Fprintf(&b, "   💰 Costo en efectivo: %s\n\n", Amount(base))
		}

		fmt.Fprintf(&b, "\n🏦 PRECIOS CON TRANSFERENCIA BANCARIA (+%d%%):\n", rates.TransferFeePercentage)
		b.WriteString(catalogRule)

		for i, n := range novelas {
			base := int64(n.Chapters) * rates.NovelPricePerChapter
			final := pricing.FinalPrice(base, models.PaymentTransfer, rates.TransferFeePercentage)

			writeNovela(&b, i+1, n)
			fmt.Fprintf(&b, "   💰 Costo base: %s\n", Amount(base))
			fmt.Fprintf(&b, "   💳 Recargo (%d%%): +%s\n", rates.TransferFeePercentage, Amount(final-base))
			fmt.Fprintf(&b, "   💰 Costo con transferencia: %s\n\n", Amount(final))
		}
	}

	fmt.Fprintf(&b, "\n📅 Generado el: %s UTC", generatedAt.UTC().Format("02/01/2006 15:04:05"))

	return b.String()
}

func writeNovela(b *strings.Builder, pos int, n models.Novela) {
	fmt.Fprintf(b, "%d. %s\n", pos, n.Title)
	fmt.Fprintf(b, "   📺 Género: %s\n", n.Genre)
	fmt.Fprintf(b, "   🌍 País: %s\n", n.Country)
	fmt.Fprintf(b, "   📊 Capítulos: %d\n", n.Chapters)
	fmt.Fprintf(b, "   📅 Año: %d\n", n.Year)
	fmt.Fprintf(b, "   📡 Estado: %s\n", statusLabel(n.Status))
}

func statusLabel(status string) string {
	if status == models.NovelaStatusBroadcasting {
		return "En Transmisión"
	}

	return "Finalizada"
}
