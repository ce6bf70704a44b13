package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parcelflow/parcelflow/internal/wallet"
)

// RegisterWalletRoutes wires wallet funding and history endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	grp := r.Group("/wallet")
	grp.Post("/initialize-payment", h.InitializePayment)
	grp.Get("/verify-payment/:reference", h.VerifyPayment)
	grp.Get("/balance", h.Balance)
	grp.Get("/transactions", h.Transactions)
}
