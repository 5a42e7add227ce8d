// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package evaluation

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all evaluation endpoints on the given group.
//
// Description:
//
//	Attaches the scoring and readiness endpoints under /evaluation.
//	The caller owns the version prefix, so mounting on router.Group("/v1")
//	produces /v1/evaluation/score and friends.
//
// Routes:
//
//	POST /evaluation/score  - Score a whole corpus
//	POST /evaluation/entry  - Score a single reference/candidate pair
//	GET  /evaluation/health - Liveness
//	GET  /evaluation/ready  - Readiness including the embedding backend
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	eval := rg.Group("/evaluation")
	{
		// Scoring
		eval.POST("/score", handlers.HandleScore)
		eval.POST("/entry", handlers.HandleScoreEntry)

		// Health checks
		eval.GET("/health", handlers.HandleHealth)
		eval.GET("/ready", handlers.HandleReady)
	}
}
