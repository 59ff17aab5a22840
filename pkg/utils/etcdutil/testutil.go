// Copyright 2023 TiKV Project Authors.
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
package etcdutil

import (
	"fmt"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"

	"github.com/tikv/throttle/pkg/utils/tempurl"
)

// NewTestSingleConfig is used to create an etcd config for the unit test purpose.
func NewTestSingleConfig() *embed.Config {
	cfg := embed.NewConfig()
	cfg.Name = "test_etcd"
	cfg.Dir, _ = os.MkdirTemp("", "test_etcd")
	cfg.WalDir = ""
	cfg.Logger = "zap"
	cfg.LogOutputs = []string{"stdout"}
	cfg.LogLevel = "error"

	pu, _ := url.Parse(tempurl.Alloc())
	cfg.ListenPeerUrls = []url.URL{*pu}
	cfg.AdvertisePeerUrls = cfg.ListenPeerUrls
	cu, _ := url.Parse(tempurl.Alloc())
	cfg.ListenClientUrls = []url.URL{*cu}
	cfg.AdvertiseClientUrls = cfg.ListenClientUrls

	cfg.StrictReconfigCheck = false
	cfg.InitialCluster = fmt.Sprintf("%s=%s", cfg.Name, &cfg.ListenPeerUrls[0])
	cfg.ClusterState = embed.ClusterStateFlagNew
	return cfg
}

// NewTestEtcdCluster starts a single member etcd server and returns a client
// connected to it. Both are torn down when the test finishes.
func NewTestEtcdCluster(t *testing.T) (*embed.Etcd, *clientv3.Client) {
	re := require.New(t)
	cfg := NewTestSingleConfig()
	etcd, err := embed.StartEtcd(cfg)
	re.NoError(err)
	<-etcd.Server.ReadyNotify()

	client, err := CreateEtcdClient([]string{cfg.ListenClientUrls[0].String()})
	re.NoError(err)
	t.Cleanup(func() {
		client.Close()
		etcd.Close()
		os.RemoveAll(cfg.Dir)
	})
	return etcd, client
}
