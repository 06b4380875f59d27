package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/http/response"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/services"
	"github.com/yungbote/gitrec/internal/wire"
)

const maxListLimit = 100

type RecommendationHandler struct {
	service services.RecommendationService
}

func NewRecommendationHandler(service services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// pathID treats a malformed id like an unknown one.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("recommendation not found"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *RecommendationHandler) GenerateOptions(c *gin.Context) {
	var req wire.GenerateOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	opts, err := h.service.GenerateOptions(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, wire.GenerateOptionsResponse{Options: opts})
}

func (h *RecommendationHandler) CreateFromOption(c *gin.Context) {
	var req wire.CreateFromOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec, err := h.service.CreateFromOption(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, rec)
}

func (h *RecommendationHandler) List(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondAPIError(c, apierr.ServerValidation(apierr.Fields{"limit": "must be a positive integer"}))
			return
		}
		limit = min(n, maxListLimit)
	}
	recs, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recommendations": recs})
}

func (h *RecommendationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rec)
}

func (h *RecommendationHandler) ListVersions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	hist, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, hist)
}

func (h *RecommendationHandler) CompareVersions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	fields := apierr.Fields{}
	parse := func(key string) uuid.UUID {
		raw := c.Query(key)
		if raw == "" {
			return uuid.Nil
		}
		v, err := uuid.Parse(raw)
		if err != nil {
			fields[key] = "not a valid version id"
		}
		return v
	}
	a := parse(wire.QueryVersionA)
	b := parse(wire.QueryVersionB)
	if len(fields) > 0 {
		response.RespondAPIError(c, apierr.ServerValidation(fields))
		return
	}
	cmp, err := h.service.Compare(c.Request.Context(), id, a, b)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, cmp)
}

func (h *RecommendationHandler) RevertVersion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req wire.RevertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if _, err := h.service.Revert(c.Request.Context(), id, req.VersionID, req.RevertReason); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecommendationHandler) RefineKeywords(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req wire.RefineKeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.service.RefineKeywords(c.Request.Context(), types.RefinementRequest{
		RecommendationID: id,
		IncludeKeywords:  req.IncludeKeywords,
		ExcludeKeywords:  req.ExcludeKeywords,
		Instructions:     req.RefinementInstructions,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *RecommendationHandler) UpdateContent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req wire.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec, err := h.service.UpdateContent(c.Request.Context(), id, req.Content, req.Description)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rec)
}
