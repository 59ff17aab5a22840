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
package command

import (
	goerrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"

	"github.com/tikv/throttle/pkg/api"
	"github.com/tikv/throttle/pkg/errs"
)

// dialClient used to dial http request.
var dialClient = &http.Client{
	Transport: &http.Transport{
		DisableKeepAlives: true,
	},
}

// StatusError carries the status code of a failed request.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Body)
}

func getEndpoint(cmd *cobra.Command) string {
	addr, err := cmd.Flags().GetString("url")
	if err != nil || addr == "" {
		addr = DefaultURL
	}
	addr = strings.TrimSuffix(addr, "/")
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return addr
}

func doRequest(cmd *cobra.Command, route, method string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), method, api.URL(getEndpoint(cmd), route), body)
	if err != nil {
		return "", errs.ErrNewHTTPRequest.Wrap(err).GenWithStackByCause()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := dialClient.Do(req)
	if err != nil {
		return "", errs.ErrSendRequest.Wrap(err).GenWithStackByCause()
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.ErrReadHTTPBody.Wrap(err).GenWithStackByCause()
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.WithStack(&StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(content))})
	}
	return string(content), nil
}

func asStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	ok := goerrors.As(err, &statusErr)
	return statusErr, ok
}
