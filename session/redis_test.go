package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	tContainer "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	dbredis "github.com/pamojavote/pamoja-go/db/redis"
	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/models"
)

type RedisStoreTestSuite struct {
	suite.Suite
	ctx       context.Context
	container tContainer.Container
	addr      string
}

func (s *RedisStoreTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tContainer.GenericContainer(s.ctx, tContainer.GenericContainerRequest{
		ContainerRequest: tContainer.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "6379")
	s.Require().NoError(err)

	s.addr = fmt.Sprintf("%s:%s", host, port.Port())
}

func (s *RedisStoreTestSuite) TearDownSuite() {
	s.Require().NoError(s.container.Terminate(s.ctx))
}

func (s *RedisStoreTestSuite) TestContract() {
	store, err := Open(s.ctx, Config{Backend: enums.StorageRedis, RedisAddr: s.addr})
	s.Require().NoError(err)
	defer store.Close()

	testStoreContract(s.T(), store)
}

func (s *RedisStoreTestSuite) TestKeysArePrefixedAndExpire() {
	client, err := dbredis.NewRedisClient(s.ctx, dbredis.Config{Addr: s.addr, DB: 1})
	s.Require().NoError(err)
	defer client.Close()
	s.Require().NoError(dbredis.Ping(s.ctx, client))

	store := New(NewRedisBackend(client, "pamoja:profile-b:", time.Minute))
	s.Require().NoError(store.SetCredentials(s.ctx, models.Credentials{Access: "a", Refresh: "r"}))

	exists, err := dbredis.Exists(s.ctx, client, "pamoja:profile-b:"+KeyAccessToken)
	s.Require().NoError(err)
	s.True(exists)

	ttl, err := client.TTL(s.ctx, "pamoja:profile-b:"+KeyRefreshToken).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	// Another profile on the same server sees nothing.
	other := New(NewRedisBackend(client, "", 0))
	creds, err := other.Credentials(s.ctx)
	s.Require().NoError(err)
	s.True(creds.Empty())

	s.Require().NoError(store.Clear(s.ctx))
	exists, err = dbredis.Exists(s.ctx, client, "pamoja:profile-b:"+KeyAccessToken)
	s.Require().NoError(err)
	s.False(exists)
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Redis integration suite in short mode")
	}
	suite.Run(t, new(RedisStoreTestSuite))
}
