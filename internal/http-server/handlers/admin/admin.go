// Package admin содержит HTTP-обработчики панели администратора: тарифы,
// каталог новел, зоны доставки, экспорт и импорт конфигурации.
package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/YusovID/storefront/internal/adminconfig"
	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/lib/api/request"
	resp "github.com/YusovID/storefront/lib/api/response"
	"github.com/YusovID/storefront/lib/logger/sl"
)

const maxImportSize = 4 << 20

type Store interface {
	Snapshot() models.AdminConfig
	Rates() models.Rates
	UpdatePricing(ctx context.Context, rates models.Rates) error
	AddNovela(ctx context.Context, n models.Novela) (models.Novela, error)
	UpdateNovela(ctx context.Context, id int64, patch adminconfig.NovelaPatch) (models.Novela, error)
	DeleteNovela(ctx context.Context, id int64) error
	PutZone(ctx context.Context, zone models.DeliveryZone) error
	DeleteZone(ctx context.Context, name string) error
	Export() ([]byte, error)
	Import(ctx context.Context, blob []byte) error
	Reset(ctx context.Context)
}

type Handlers struct {
	log   *slog.Logger
	store Store
}

func New(log *slog.Logger, store Store) *Handlers {
	return &Handlers{log: log, store: store}
}

// Routes регистрирует маршруты; авторизацию добавляет вызывающий код.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/config", h.GetConfig)
	r.Get("/config/export", h.Export)
	r.Post("/config/import", h.Import)
	r.Post("/config/reset", h.Reset)

	r.Get("/pricing", h.GetPricing)
	r.Put("/pricing", h.PutPricing)

	r.Post("/novelas", h.AddNovela)
	r.Patch("/novelas/{id}", h.UpdateNovela)
	r.Delete("/novelas/{id}", h.DeleteNovela)

	r.Put("/zones/{name}", h.PutZone)
	r.Delete("/zones/{name}", h.DeleteZone)
}

type ConfigResponse struct {
	resp.Response
	Config models.AdminConfig `json:"config"`
}

type PricingResponse struct {
	resp.Response
	Pricing models.Rates `json:"pricing"`
}

type NovelaResponse struct {
	resp.Response
	Novela models.Novela `json:"novela"`
}

type ZoneRequest struct {
	Cost *int64 `json:"cost" validate:"required,gte=0"`
}

func (h *Handlers) logger(r *http.Request, fn string) *slog.Logger {
	return h.log.With(
		slog.String("fn", fn),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ConfigResponse{Response: resp.OK(), Config: h.store.Snapshot()})
}

func (h *Handlers) GetPricing(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, PricingResponse{Response: resp.OK(), Pricing: h.store.Rates()})
}

func (h *Handlers) PutPricing(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.PutPricing"

	log := h.logger(r, fn)

	var rates models.Rates
	if !request.Decode(w, r, log, &rates) {
		return
	}

	if err := h.store.UpdatePricing(r.Context(), rates); err != nil {
		writeError(w, r, log, err)
		return
	}

	log.Info("pricing updated", slog.Any("pricing", rates))

	render.JSON(w, r, PricingResponse{Response: resp.OK(), Pricing: h.store.Rates()})
}

func (h *Handlers) AddNovela(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.AddNovela"

	log := h.logger(r, fn)

	var n models.Novela
	if !request.Decode(w, r, log, &n) {
		return
	}

	created, err := h.store.AddNovela(r.Context(), n)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	log.Info("novela added", slog.Int64("id", created.ID))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, NovelaResponse{Response: resp.OK(), Novela: created})
}

func (h *Handlers) UpdateNovela(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.UpdateNovela"

	log := h.logger(r, fn)

	id, ok := novelaID(w, r)
	if !ok {
		return
	}

	var patch adminconfig.NovelaPatch
	if !request.Decode(w, r, log, &patch) {
		return
	}

	updated, err := h.store.UpdateNovela(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, NovelaResponse{Response: resp.OK(), Novela: updated})
}

func (h *Handlers) DeleteNovela(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.DeleteNovela"

	log := h.logger(r, fn)

	id, ok := novelaID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteNovela(r.Context(), id); err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, resp.OK())
}

func (h *Handlers) PutZone(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.PutZone"

	log := h.logger(r, fn)

	var req ZoneRequest
	if !request.Decode(w, r, log, &req) {
		return
	}

	zone := models.DeliveryZone{Name: chi.URLParam(r, "name"), Cost: *req.Cost}

	if err := h.store.PutZone(r.Context(), zone); err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, ConfigResponse{Response: resp.OK(), Config: h.store.Snapshot()})
}

func (h *Handlers) DeleteZone(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.DeleteZone"

	log := h.logger(r, fn)

	if err := h.store.DeleteZone(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, ConfigResponse{Response: resp.OK(), Config: h.store.Snapshot()})
}

func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.Export"

	log := h.logger(r, fn)

	blob, err := h.store.Export()
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="storefront-config.json"`)
	_, _ = w.Write(blob)
}

func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.Import"

	log := h.logger(r, fn)

	blob, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		log.Error("failed to read body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("failed to read request"))
		return
	}

	if err := h.store.Import(r.Context(), blob); err != nil {
		writeError(w, r, log, err)
		return
	}

	log.Info("config imported")

	render.JSON(w, r, ConfigResponse{Response: resp.OK(), Config: h.store.Snapshot()})
}

func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	const fn = "handlers.admin.Reset"

	h.store.Reset(r.Context())

	h.logger(r, fn).Info("config reset to defaults")

	render.JSON(w, r, ConfigResponse{Response: resp.OK(), Config: h.store.Snapshot()})
}

func novelaID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("invalid novela id"))
		return 0, false
	}

	return id, true
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, adminconfig.ErrNovelaNotFound), errors.Is(err, adminconfig.ErrZoneNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error(err.Error()))

	case errors.Is(err, adminconfig.ErrInvalidConfig), errors.Is(err, adminconfig.ErrReservedZone):
		log.Info("rejected admin change", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, resp.Error(err.Error()))

	default:
		log.Error("admin operation failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("internal error"))
	}
}
