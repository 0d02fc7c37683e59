// internal/handlers/generation.go
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/generation"
	"github.com/javajoker/listing-studio/internal/i18n"
	"github.com/javajoker/listing-studio/internal/models"
	"github.com/javajoker/listing-studio/internal/services"
	"github.com/javajoker/listing-studio/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

type GenerationRunner interface {
	Start(ctx context.Context, actor services.Actor, productID uuid.UUID, channel models.Channel) (*models.GenerationRun, error)
	Status(ctx context.Context, companyID, productID uuid.UUID, channel models.Channel) (*services.RunView, error)
	Watch(ctx context.Context, companyID, productID uuid.UUID, channel models.Channel) (<-chan generation.Snapshot, error)
	Cancel(ctx context.Context, companyID, productID uuid.UUID, channel models.Channel) error
	GenerateSlotImage(ctx context.Context, actor services.Actor, productID uuid.UUID, channel models.Channel, slot int) (*generation.SlotOutcome, error)
}

type GenerationHandler struct {
	generations GenerationRunner
	upgrader    websocket.Upgrader
}

// NewGenerationHandler accepts websocket connections from allowedOrigins; a
// single "*" allows any origin.
func NewGenerationHandler(generations GenerationRunner, allowedOrigins []string) *GenerationHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &GenerationHandler{
		generations: generations,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// POST /products/:id/listings/:channel/generate
func (h *GenerationHandler) StartGeneration(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, key, ok := listingRequest(c)
	if !ok {
		return
	}

	run, err := h.generations.Start(c.Request.Context(), actor, key.ProductID, key.Channel)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.AcceptedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyGenerationStarted),
		"run":     run,
	})
}

// POST /products/:id/listings/:channel/images/:slot
func (h *GenerationHandler) GenerateSlotImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, key, ok := listingRequest(c)
	if !ok {
		return
	}

	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeySlotInvalid), gin.H{"slot": c.Param("slot")})
		return
	}

	out, err := h.generations.GenerateSlotImage(c.Request.Context(), actor, key.ProductID, key.Channel, slot)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySlotGenerated, out.Slot.Number),
		"result":  out,
	})
}

// GET /products/:id/listings/:channel/generation
func (h *GenerationHandler) GetGeneration(c *gin.Context) {
	actor, key, ok := listingRequest(c)
	if !ok {
		return
	}

	view, err := h.generations.Status(c.Request.Context(), actor.CompanyID, key.ProductID, key.Channel)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, view)
}

// DELETE /products/:id/listings/:channel/generation
func (h *GenerationHandler) CancelGeneration(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, key, ok := listingRequest(c)
	if !ok {
		return
	}

	if err := h.generations.Cancel(c.Request.Context(), actor.CompanyID, key.ProductID, key.Channel); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyGenerationCanceled),
	})
}

// GET /products/:id/listings/:channel/generation/ws
func (h *GenerationHandler) WatchGeneration(c *gin.Context) {
	actor, key, ok := listingRequest(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, err := h.generations.Watch(ctx, actor.CompanyID, key.ProductID, key.Channel)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote an HTTP error
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{"product_id": key.ProductID, "channel": key.Channel})

	// the read loop only handles control frames and notices the client leaving
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case snap, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "generation finished"))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				log.WithError(err).Debug("WebSocket write failed")
				return
			}
		}
	}
}
