// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package recorder_routers

import (
	"github.com/gin-gonic/gin"

	evaluationApi "github.com/rapidaai/speaking-coach/api/recorder-api/api/evaluation"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/config"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

func EvaluationApiRoute(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, evaluator internal_type.Evaluator) {
	apiv1 := engine.Group("v1")
	evalApi := evaluationApi.NewEvaluationApi(cfg, logger, evaluator)
	{
		apiv1.POST("/evaluations", evalApi.Evaluate)
	}
}
