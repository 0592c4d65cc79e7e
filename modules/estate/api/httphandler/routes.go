package httphandler

import (
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
	"github.com/gofiber/fiber/v2"
)

const welcomeMessage = "Welcome to Tokenized Real Estate Shares on Bitcoin Blockchains."

func (h *HttpHandler) Mount(router fiber.Router) error {
	router.Get("/", h.Welcome)
	if h.websocket != nil {
		router.Get("/ws", broadcast.UpgradeRequired, h.websocket)
	}

	api := router.Group("/api")

	properties := api.Group("/properties")
	properties.Post("/", h.CreateProperty)
	properties.Get("/", h.GetProperties)
	properties.Get("/:id", h.GetProperty)
	properties.Put("/:id", h.UpdateProperty)
	properties.Delete("/:id", h.DeleteProperty)
	properties.Post("/:id/image", h.UploadPropertyImage)

	holders := api.Group("/holders")
	holders.Post("/search", h.SearchHolders)
	holders.Post("/", h.CreateHolder)
	holders.Get("/", h.GetHolders)
	holders.Get("/:id", h.GetHolder)
	holders.Put("/:id", h.UpdateHolder)
	holders.Delete("/:id", h.DeleteHolder)

	inscriptions := api.Group("/inscriptions")
	inscriptions.Post("/", h.CreateInscription)
	inscriptions.Get("/", h.GetInscriptions)
	inscriptions.Get("/owners/group", h.GetOwnerShares)
	inscriptions.Get("/single/:inscriptionId", h.GetInscriptionsByInscriptionId)
	inscriptions.Get("/property/group/:id", h.GetPropertyOwnerShares)
	inscriptions.Get("/property/:id", h.GetInscriptionsByProperty)
	inscriptions.Get("/owner/:address", h.GetInscriptionsByOwner)
	inscriptions.Get("/:id", h.GetInscription)
	inscriptions.Put("/:id", h.UpdateInscription)
	inscriptions.Delete("/:id", h.DeleteInscription)
	inscriptions.Delete("/", h.DeleteAllInscriptions)

	orders := api.Group("/orders")
	orders.Post("/", h.CreateOrder)
	orders.Get("/", h.GetOrders)
	orders.Get("/:id", h.GetOrder)
	orders.Put("/:id", h.UpdateOrder)
	orders.Delete("/:id", h.DeleteOrder)
	orders.Delete("/", h.DeleteAllOrders)

	propertyIncomes := api.Group("/propertyIncomes")
	propertyIncomes.Get("/export", h.ExportPropertyIncomes)
	propertyIncomes.Get("/analyze/monthly", h.AnalyzePropertyIncomeMonthly)
	propertyIncomes.Get("/analyze/property", h.AnalyzePropertyIncomeByProperty)
	propertyIncomes.Get("/analyze/amount", h.AnalyzePropertyIncomeByAmount)
	propertyIncomes.Post("/", h.CreatePropertyIncome)
	propertyIncomes.Get("/", h.GetPropertyIncomes)
	propertyIncomes.Get("/:id", h.GetPropertyIncome)
	propertyIncomes.Put("/:id", h.UpdatePropertyIncome)
	propertyIncomes.Delete("/:id", h.DeletePropertyIncome)

	userIncomes := api.Group("/userIncomes")
	userIncomes.Get("/export", h.ExportUserIncomes)
	userIncomes.Get("/analyze/address", h.AnalyzeUserIncomeByAddress)
	userIncomes.Get("/analyze/monthly", h.AnalyzeUserIncomeMonthly)
	userIncomes.Get("/analyze/property", h.AnalyzeUserIncomeByProperty)
	userIncomes.Get("/analyze/amount", h.AnalyzeUserIncomeByAmount)
	userIncomes.Get("/analyze/address/:address", h.AnalyzeUserIncomeOfAddress)
	userIncomes.Get("/analyze/property/:id", h.AnalyzeUserIncomeOfProperty)
	userIncomes.Get("/analyze/amount/address/:address", h.AnalyzeUserIncomeAmountOfAddress)
	userIncomes.Get("/analyze/amount/property/:id", h.AnalyzeUserIncomeAmountOfProperty)
	userIncomes.Post("/", h.CreateUserIncome)
	userIncomes.Get("/", h.GetUserIncomes)
	userIncomes.Get("/:id", h.GetUserIncome)
	userIncomes.Put("/:id", h.UpdateUserIncome)
	userIncomes.Delete("/:id", h.DeleteUserIncome)

	reconcile := api.Group("/reconcile")
	reconcile.Post("/orders", h.ReconcileOrders)
	reconcile.Post("/holders", h.ReconcileHolders)
	reconcile.Get("/status", h.GetReconcileStatus)
	return nil
}
