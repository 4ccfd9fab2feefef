package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Meta describes the running deployment to clients before they call anything
// else.
type Meta struct {
	Service       string   `json:"service"`
	Version       string   `json:"version"`
	Env           string   `json:"env"`
	StoreBackend  string   `json:"store_backend"`
	Collaborators string   `json:"collaborators"`
	Channels      []string `json:"ws_channels"`
}

type MetaHandler struct {
	meta Meta
}

func NewMetaHandler(meta Meta) *MetaHandler {
	if meta.Service == "" {
		meta.Service = "lumilend-backend"
	}
	return &MetaHandler{meta: meta}
}

func (h *MetaHandler) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, h.meta)
}
