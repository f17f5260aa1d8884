// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package health_check_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapidaai/speaking-coach/config"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

type healthCheckApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
	ready  func() bool
}

// New builds the probes; ready reports whether the service can take
// evaluation traffic.
func New(cfg *config.AppConfig, logger commons.Logger, ready func() bool) *healthCheckApi {
	return &healthCheckApi{cfg: cfg, logger: logger, ready: ready}
}

func (h *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"healthy": true, "service": h.cfg.Name, "version": h.cfg.Version})
}

func (h *healthCheckApi) Readiness(c *gin.Context) {
	if h.ready != nil && !h.ready() {
		h.logger.Warnf("readiness probe failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
