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
	"path"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/render"
)

// APIPrefix is the prefix of every route.
const APIPrefix = "/throttle"

// Routes relative to APIPrefix.
const (
	Ping = "/ping"
	// Status is the api that may GET.
	Status = "/api/v1/status"
	// Config is the api that may GET.
	Config = "/api/v1/config"
	// Watermark is the api that may GET.
	Watermark = "/api/v1/watermark"
	// Permits is the api that may POST.
	Permits = "/api/v1/permits"
	// AdminLog is the api that may POST.
	AdminLog = "/api/v1/admin/log"
	Metrics  = "/metrics"
)

func createRouter(prefix string, svc *Service) *mux.Router {
	rd := render.New(render.Options{
		IndentJSON: true,
	})

	router := mux.NewRouter().PathPrefix(prefix).Subrouter()

	router.HandleFunc(Ping, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	statusHandler := newStatusHandler(svc, rd)
	router.HandleFunc(Status, statusHandler.GetStatus).Methods(http.MethodGet)

	throttleHandler := newThrottleHandler(svc, rd)
	router.HandleFunc(Config, throttleHandler.GetConfig).Methods(http.MethodGet)
	router.HandleFunc(Watermark, throttleHandler.GetWatermark).Methods(http.MethodGet)
	router.HandleFunc(Permits, throttleHandler.Reserve).Methods(http.MethodPost)

	logHandler := newLogHandler(rd)
	router.HandleFunc(AdminLog, logHandler.SetLogLevel).Methods(http.MethodPost)

	router.Handle(Metrics, promhttp.Handler()).Methods(http.MethodGet)
	return router
}

// URL joins the address of a server with a route.
func URL(addr, route string) string {
	return addr + path.Join(APIPrefix, route)
}
