// Copyright 2024 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package api

import (
	"net/http"

	"github.com/unrolled/render"

	"github.com/tikv/throttle/pkg/versioninfo"
	"github.com/tikv/throttle/pkg/workload"
)

// StatusResponse is the body of the status api.
type StatusResponse struct {
	versioninfo.Status
	Backend string          `json:"backend"`
	Key     string          `json:"key"`
	Stats   *workload.Stats `json:"stats,omitempty"`
}

type statusHandler struct {
	svc *Service
	rd  *render.Render
}

func newStatusHandler(svc *Service, rd *render.Render) *statusHandler {
	return &statusHandler{
		svc: svc,
		rd:  rd,
	}
}

// GetStatus reports the build and the running workload.
func (h *statusHandler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status: versioninfo.Status{
			BuildTS:        versioninfo.ThrottleBuildTS,
			Version:        versioninfo.ThrottleReleaseVersion,
			GitHash:        versioninfo.ThrottleGitHash,
			StartTimestamp: h.svc.startTimestamp,
		},
		Backend: h.svc.backend,
		Key:     h.svc.reserver.Key(),
	}
	if h.svc.stats != nil {
		stats := h.svc.stats()
		resp.Stats = &stats
	}
	h.rd.JSON(w, http.StatusOK, resp)
}
