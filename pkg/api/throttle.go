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

	"github.com/pingcap/log"
	"github.com/unrolled/render"

	"github.com/tikv/throttle/pkg/errs"
)

// WatermarkResponse is the body of the watermark api.
type WatermarkResponse struct {
	Key       string `json:"key"`
	Watermark int64  `json:"watermark"`
}

type throttleHandler struct {
	svc *Service
	rd  *render.Render
}

func newThrottleHandler(svc *Service, rd *render.Render) *throttleHandler {
	return &throttleHandler{
		svc: svc,
		rd:  rd,
	}
}

// GetConfig returns the throttle config.
func (h *throttleHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	h.rd.JSON(w, http.StatusOK, h.svc.reserver.Config())
}

// GetWatermark returns the valid time of the last permit granted.
func (h *throttleHandler) GetWatermark(w http.ResponseWriter, r *http.Request) {
	watermark, err := h.svc.reserver.Watermark(r.Context())
	if err != nil {
		h.rd.JSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.rd.JSON(w, http.StatusOK, WatermarkResponse{
		Key:       h.svc.reserver.Key(),
		Watermark: watermark,
	})
}

// Reserve makes one reservation on behalf of a remote caller, which is
// responsible for waiting and for checking the expiry against its own clock.
func (h *throttleHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	permit, ok, err := h.svc.reserver.Reserve(r.Context())
	if err != nil {
		log.Error("reserve for remote caller failed", errs.ZapError(err))
		h.rd.JSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		h.rd.JSON(w, http.StatusTooManyRequests, errs.ErrNoPermit.FastGenByArgs().Error())
		return
	}
	h.rd.JSON(w, http.StatusOK, permit)
}
