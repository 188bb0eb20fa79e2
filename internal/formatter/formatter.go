// Package formatter превращает заказы и каталог новел в текст и передаёт
// заказы получателям уведомлений.
//
// Один и тот же OrderRecord всегда даёт одинаковый текст. Суммы выводятся
// в целых CUP с запятой между разрядами.
package formatter

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/YusovID/storefront/internal/models"
)

const createdAtLayout = "02/01/2006 15:04"

// message.Printer после создания можно использовать из разных горутин
var printer = message.NewPrinter(language.English)

// Amount форматирует сумму, например "$1,018 CUP".
func Amount(v int64) string {
	return printer.Sprintf("$%d CUP", v)
}

// Format собирает полный текст заказа.
func Format(order models.OrderRecord) string {
	var b strings.Builder

	b.WriteString("🎬 *NUEVO PEDIDO - TV a la Carta*\n\n")
	fmt.Fprintf(&b, "📋 *ID de Orden:* %s\n", order.OrderID)
	fmt.Fprintf(&b, "📅 *Fecha:* %s UTC\n\n", order.CreatedAt.UTC().Format(createdAtLayout))

	writeCustomer(&b, order)
	writeLines(&b, order)
	writeSummary(&b, order)

	return b.String()
}

func writeCustomer(b *strings.Builder, order models.OrderRecord) {
	c := order.Customer

	b.WriteString("👤 *DATOS DEL CLIENTE*\n")
	fmt.Fprintf(b, "• Nombre: %s\n", c.FullName)
	if c.IDCard != "" {
		fmt.Fprintf(b, "• Carnet: %s\n", c.IDCard)
	}
	fmt.Fprintf(b, "• Teléfono: %s\n", c.Phone)
	if c.Address != "" {
		fmt.Fprintf(b, "• Dirección: %s\n", c.Address)
	}
	b.WriteString("\n")
}

func writeLines(b *strings.Builder, order models.OrderRecord) {
	b.WriteString("🛒 *PRODUCTOS SOLICITADOS*\n")

	for i, line := range order.Lines {
		fmt.Fprintf(b, "%d. %s: %s\n", i+1, line.Item.Kind.Label(), line.Item.Title)

		switch line.Item.Kind {
		case models.KindSeries:
			fmt.Fprintf(b, "   • Temporadas: %s\n", seasonsLabel(line.Seasons()))
		case models.KindNovela:
			fmt.Fprintf(b, "   • Capítulos: %d\n", line.Chapters())
		}

		fmt.Fprintf(b, "   • Pago: %s\n", line.PaymentMethod.Label())

		if line.PaymentMethod == models.PaymentTransfer {
			fmt.Fprintf(b, "   • Precio base: %s\n", Amount(line.Quote.Base))
			fmt.Fprintf(b, "   • Recargo (%d%%): +%s\n", order.TransferFeePercentage, Amount(line.Quote.Surcharge))
			fmt.Fprintf(b, "   • Precio final: %s\n", Amount(line.Quote.Final))
			continue
		}

		fmt.Fprintf(b, "   • Precio: %s\n", Amount(line.Quote.Final))
	}
	b.WriteString("\n")
}

func writeSummary(b *strings.Builder, order models.OrderRecord) {
	b.WriteString("💰 *RESUMEN DE COSTOS*\n")
	fmt.Fprintf(b, "• Efectivo: %s\n", Amount(order.CashSubtotal))
	fmt.Fprintf(b, "• Transferencia: %s\n", Amount(order.TransferSubtotal))
	fmt.Fprintf(b, "• Subtotal contenido: %s\n", Amount(order.ContentSubtotal))
	fmt.Fprintf(b, "• Entrega (%s): %s\n", deliveryLabel(order.DeliveryOption), Amount(order.DeliveryCost))
	b.WriteString("\n")
	fmt.Fprintf(b, "🎯 *TOTAL: %s*\n", Amount(order.GrandTotal))
}

func deliveryLabel(opt models.DeliveryOption) string {
	if opt.Pickup {
		return "Recogida en el local"
	}

	return opt.Name
}

// seasonsLabel совпадает с ценой: сериал без выбранных сезонов
// считается как один сезон.
func seasonsLabel(seasons []int) string {
	if len(seasons) == 0 {
		return "1"
	}

	return joinInts(slices.Compact(seasons))
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}

	return strings.Join(parts, ", ")
}
