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
	"encoding/json"
	"io"
	"net/http"

	"github.com/pingcap/log"
	"github.com/unrolled/render"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/utils/logutil"
)

type logHandler struct {
	rd *render.Render
}

func newLogHandler(rd *render.Render) *logHandler {
	return &logHandler{
		rd: rd,
	}
}

// SetLogLevel sets the level of the global logger.
func (h *logHandler) SetLogLevel(w http.ResponseWriter, r *http.Request) {
	var level string
	data, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		h.rd.JSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	err = json.Unmarshal(data, &level)
	if err != nil {
		h.rd.JSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if !logutil.IsLevelLegal(level) {
		h.rd.JSON(w, http.StatusBadRequest, "illegal log level "+level)
		return
	}
	log.SetLevel(logutil.StringToZapLogLevel(level))
	log.Info("log level is updated", zap.String("level", level))

	h.rd.JSON(w, http.StatusOK, "The log level is updated.")
}
