package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"stockmanager/internal/api/response"
	"stockmanager/internal/domain"
	apperror "stockmanager/internal/errors"
	"stockmanager/internal/pkg/logger"
	"stockmanager/internal/service/stockservice"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	CreateStock(ctx context.Context, form stockservice.StockForm) (stockservice.Outcome, error)
	EditStock(ctx context.Context, productID int, form stockservice.EditForm) (stockservice.EditReport, error)
	SellWithDiscount(ctx context.Context, productID int, discountMultiplier decimal.Decimal, quantity int) (stockservice.Outcome, error)
	SellStock(ctx context.Context, productID int, pricePerStock decimal.Decimal, quantity int) (stockservice.Outcome, error)
	AddStock(ctx context.Context, productID, quantity int) (stockservice.Outcome, error)
	RemoveStock(ctx context.Context, productID int) (stockservice.Outcome, error)
	RemoveAllStock(ctx context.Context) (stockservice.Outcome, error)
	GetAllStocks(ctx context.Context) ([]*domain.Stock, error)
	SearchByDescription(ctx context.Context, substring string) ([]*domain.Stock, error)
	SearchByProductID(ctx context.Context, partial int) ([]*domain.Stock, error)
	GetProductIDFromDescription(ctx context.Context, description string) (int, error)
	GetStockByDescription(ctx context.Context, description string) (*domain.Stock, error)
	GetStockByProductID(ctx context.Context, productID int) (*domain.Stock, error)
	GetNumberSold(ctx context.Context, productID int) (int, error)
	GetTotalRevenue(ctx context.Context, productID int) (decimal.Decimal, error)
	GetStockReport(ctx context.Context) (string, error)
}

// QuantityRequest é o corpo de POST /v1/stocks/{id}/add.
type QuantityRequest struct {
	Quantity *int `json:"quantity,omitempty"`
}

// SellRequest é o corpo de POST /v1/stocks/{id}/sell.
// Com price_per_stock a venda usa o preço informado; sem ele aplica
// discount_multiplier (padrão 1) sobre o preço cadastrado.
type SellRequest struct {
	Quantity           *int             `json:"quantity,omitempty"`
	PricePerStock      *decimal.Decimal `json:"price_per_stock,omitempty"`
	DiscountMultiplier *decimal.Decimal `json:"discount_multiplier,omitempty"`
}

// EditResponse descreve o resultado de cada campo de um PATCH.
type EditResponse struct {
	Fields map[string]string `json:"fields"`
	Stock  *domain.Stock     `json:"stock"`
}

// StatsResponse traz os contadores de venda de um item.
type StatsResponse struct {
	ProductID    int             `json:"product_id"`
	NumberSold   int             `json:"number_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// LookupResponse é a resposta de GET /v1/stocks/lookup.
type LookupResponse struct {
	ProductID int `json:"product_id"`
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// outcomeError traduz uma rejeição de negócio para o erro HTTP correspondente.
func outcomeError(o stockservice.Outcome, productID int) error {
	switch o {
	case stockservice.NotFound:
		return apperror.NewNotFoundError(fmt.Sprintf("Estoque com productID %d não existe.", productID))
	case stockservice.InvalidInput:
		return apperror.NewValidationError("Valores rejeitados para o estoque.")
	case stockservice.AlreadyExists:
		return apperror.NewConflictError(fmt.Sprintf("Estoque com productID %d já existe.", productID))
	}
	return nil
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("productID deve ser numérico."))
		return 0, false
	}
	return id, true
}

// writeStock busca o registro atualizado e responde com ele.
func (h *Handler) writeStock(w http.ResponseWriter, r *http.Request, productID, status int) {
	s, err := h.Service.GetStockByProductID(r.Context(), productID)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if s == nil {
		response.Error(w, r, h.Logger, outcomeError(stockservice.NotFound, productID))
		return
	}
	response.JSON(w, h.Logger, status, s)
}

// ListStocksHandler godoc
// @Summary Lista estoques
// @Description Sem filtros devolve todos os itens. description filtra por substring (sem diferenciar maiúsculas) e product_id por substring do código.
// @Tags stocks
// @Produce json
// @Param description query string false "Trecho da descrição"
// @Param product_id query int false "Trecho do código"
// @Success 200 {array} domain.Stock
// @Failure 400 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks [get]
func (h *Handler) ListStocksHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		stocks []*domain.Stock
		err    error
	)

	switch {
	case q.Get("product_id") != "":
		partial, convErr := strconv.Atoi(q.Get("product_id"))
		if convErr != nil {
			response.Error(w, r, h.Logger, apperror.NewValidationError("product_id deve ser numérico."))
			return
		}
		stocks, err = h.Service.SearchByProductID(r.Context(), partial)
	case q.Get("description") != "":
		stocks, err = h.Service.SearchByDescription(r.Context(), q.Get("description"))
	default:
		stocks, err = h.Service.GetAllStocks(r.Context())
	}
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	response.JSON(w, h.Logger, http.StatusOK, stocks)
}

// CreateStockHandler godoc
// @Summary Cadastra um item de estoque
// @Description Só cadastra quando preço, quantidade e limite de reposição não são negativos.
// @Tags stocks
// @Accept json
// @Produce json
// @Param stock body stockservice.StockForm true "Dados do item"
// @Success 201 {object} domain.Stock
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks [post]
func (h *Handler) CreateStockHandler(w http.ResponseWriter, r *http.Request) {
	var form stockservice.StockForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}

	outcome, err := h.Service.CreateStock(r.Context(), form)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if outcome != stockservice.Applied {
		response.Error(w, r, h.Logger, outcomeError(outcome, form.ProductID))
		return
	}

	h.writeStock(w, r, form.ProductID, http.StatusCreated)
}

// RemoveAllStocksHandler godoc
// @Summary Remove todos os itens
// @Tags stocks
// @Success 204
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks [delete]
func (h *Handler) RemoveAllStocksHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.RemoveAllStock(r.Context()); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStockHandler godoc
// @Summary Obtém um item pelo productID
// @Tags stocks
// @Produce json
// @Param id path int true "productID"
// @Success 200 {object} domain.Stock
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks/{id} [get]
func (h *Handler) GetStockHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.writeStock(w, r, id, http.StatusOK)
}

// EditStockHandler godoc
// @Summary Edita preço, quantidade e limite de reposição
// @Description Só os campos que mudaram são gravados. A resposta traz o resultado de cada campo.
// @Tags stocks
// @Accept json
// @Produce json
// @Param id path int true "productID"
// @Param form body stockservice.EditForm true "Novos valores"
// @Success 200 {object} stock.EditResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks/{id} [patch]
func (h *Handler) EditStockHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var form stockservice.EditForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}

	report, err := h.Service.EditStock(r.Context(), id, form)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if report.Outcome == stockservice.NotFound {
		response.Error(w, r, h.Logger, outcomeError(report.Outcome, id))
		return
	}

	s, err := h.Service.GetStockByProductID(r.Context(), id)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	fields := make(map[string]string, len(report.Fields))
	for f, o := range report.Fields {
		fields[string(f)] = o.String()
	}

	status := http.StatusOK
	if report.Outcome == stockservice.InvalidInput {
		status = http.StatusUnprocessableEntity
	}
	response.JSON(w, h.Logger, status, EditResponse{Fields: fields, Stock: s})
}

// RemoveStockHandler godoc
// @Summary Remove um item
// @Tags stocks
// @Param id path int true "productID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks/{id} [delete]
func (h *Handler) RemoveStockHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	outcome, err := h.Service.RemoveStock(r.Context(), id)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if outcome != stockservice.Applied {
		response.Error(w, r, h.Logger, outcomeError(outcome, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddStockHandler godoc
// @Summary Soma unidades ao estoque
// @Description quantity padrão 1. Pode ser negativo desde que o saldo não fique abaixo de zero.
// @Tags stocks
// @Accept json
// @Produce json
// @Param id path int true "productID"
// @Param body body stock.QuantityRequest false "Quantidade"
// @Success 200 {object} domain.Stock
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks/{id}/add [post]
func (h *Handler) AddStockHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req QuantityRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	outcome, err := h.Service.AddStock(r.Context(), id, quantityOrDefault(req.Quantity))
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if outcome != stockservice.Applied {
		response.Error(w, r, h.Logger, outcomeError(outcome, id))
		return
	}
	h.writeStock(w, r, id, http.StatusOK)
}

// SellStockHandler godoc
// @Summary Registra uma venda
// @Description Vende quantity unidades (padrão 1). Se o saldo ficar abaixo do limite, a reposição é feita na hora.
// @Tags stocks
// @Accept json
// @Produce json
// @Param id path int true "productID"
// @Param body body stock.SellRequest false "Dados da venda"
// @Success 200 {object} domain.Stock
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks/{id}/sell [post]
func (h *Handler) SellStockHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req SellRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}
	quantity := quantityOrDefault(req.Quantity)

	var (
		outcome stockservice.Outcome
		err     error
	)
	if req.PricePerStock != nil {
		outcome, err = h.Service.SellStock(r.Context(), id, *req.PricePerStock, quantity)
	} else {
		multiplier := decimal.NewFromInt(1)
		if req.DiscountMultiplier != nil {
			multiplier = *req.DiscountMultiplier
		}
		outcome, err = h.Service.SellWithDiscount(r.Context(), id, multiplier, quantity)
	}
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if outcome != stockservice.Applied {
		response.Error(w, r, h.Logger, outcomeError(outcome, id))
		return
	}
	h.writeStock(w, r, id, http.StatusOK)
}

// StatsHandler godoc
// @Summary Contadores de venda de um item
// @Tags stocks
// @Produce json
// @Param id path int true "productID"
// @Success 200 {object} stock.StatsResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks/{id}/stats [get]
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	sold, err := h.Service.GetNumberSold(r.Context(), id)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if sold == stockservice.NotFoundSentinel {
		response.Error(w, r, h.Logger, outcomeError(stockservice.NotFound, id))
		return
	}
	revenue, err := h.Service.GetTotalRevenue(r.Context(), id)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	response.JSON(w, h.Logger, http.StatusOK, StatsResponse{ProductID: id, NumberSold: sold, TotalRevenue: revenue})
}

// LookupHandler godoc
// @Summary Localiza um item pela descrição
// @Description description devolve o productID do primeiro item cuja descrição contém o texto. exact devolve o item com a descrição idêntica.
// @Tags stocks
// @Produce json
// @Param description query string false "Trecho da descrição"
// @Param exact query string false "Descrição exata"
// @Success 200 {object} stock.LookupResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /stocks/lookup [get]
func (h *Handler) LookupHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if exact := q.Get("exact"); exact != "" {
		s, err := h.Service.GetStockByDescription(r.Context(), exact)
		if err != nil {
			response.Error(w, r, h.Logger, err)
			return
		}
		if s == nil {
			response.Error(w, r, h.Logger, apperror.NewNotFoundError(fmt.Sprintf("Nenhum estoque com a descrição %q.", exact)))
			return
		}
		response.JSON(w, h.Logger, http.StatusOK, s)
		return
	}

	description := q.Get("description")
	if description == "" {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Informe description ou exact."))
		return
	}

	id, err := h.Service.GetProductIDFromDescription(r.Context(), description)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if id == stockservice.NotFoundSentinel {
		response.Error(w, r, h.Logger, apperror.NewNotFoundError(fmt.Sprintf("Nenhum estoque contém %q.", description)))
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, LookupResponse{ProductID: id})
}

// ReportHandler godoc
// @Summary Relatório textual do estoque
// @Tags stocks
// @Produce plain
// @Success 200 {string} string "Um bloco por item separado por ---"
// @Security ApiKeyAuth
// @Router /stocks/report [get]
func (h *Handler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.GetStockReport(r.Context())
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}

// decodeOptional aceita corpo vazio.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return false
	}
	return true
}

func quantityOrDefault(q *int) int {
	if q == nil {
		return 1
	}
	return *q
}
