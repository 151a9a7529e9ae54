// Package leader provides etcd-backed leader election so that exactly one
// orchestrator instance ticks the simulation when the simulator is run as
// multiple replicas for availability (spec §4.I: the tick loop owns all
// mutation, so a split-brain tick loop would corrupt fleet state).
package leader

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
	"go.uber.org/zap"
)

const defaultLeaseTTL = 10 // seconds

// Config configures the etcd connection and election key.
type Config struct {
	Endpoints   []string
	ElectionKey string
	LeaseTTL    int
	DialTimeout time.Duration
}

// DefaultConfig returns a Config pointed at a single local etcd endpoint.
func DefaultConfig(endpoints []string) Config {
	return Config{
		Endpoints:   endpoints,
		ElectionKey: "glp-fleet/orchestrator-leader",
		LeaseTTL:    defaultLeaseTTL,
		DialTimeout: 5 * time.Second,
	}
}

// Elector campaigns for leadership in a background goroutine and exposes a
// lock-free IsLeader check, satisfying orchestrator.LeaderElector.
type Elector struct {
	client   *clientv3.Client
	session  *concurrency.Session
	election *concurrency.Election
	log      *zap.Logger

	isLeader int32
	nodeID   string
	cancel   context.CancelFunc
}

// New dials etcd and prepares an election under cfg.ElectionKey. The
// returned Elector is not yet a leader; call Campaign to begin.
func New(cfg Config, nodeID string, log *zap.Logger) (*Elector, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("leader: dial etcd: %w", err)
	}

	session, err := concurrency.NewSession(client, concurrency.WithTTL(cfg.LeaseTTL))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("leader: new session: %w", err)
	}

	return &Elector{
		client:   client,
		session:  session,
		election: concurrency.NewElection(session, cfg.ElectionKey),
		log:      log,
		nodeID:   nodeID,
	}, nil
}

// Campaign blocks in a background goroutine trying to become leader and
// re-campaigns automatically if the session expires. It returns immediately.
func (e *Elector) Campaign(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	go e.run(ctx)
}

func (e *Elector) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.session.Done():
			e.log.Warn("leader: etcd session expired, re-establishing")
			atomic.StoreInt32(&e.isLeader, 0)
			session, err := concurrency.NewSession(e.client, concurrency.WithTTL(defaultLeaseTTL))
			if err != nil {
				e.log.Error("leader: failed to re-establish session", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			e.session = session
			e.election = concurrency.NewElection(session, e.election.Key())
		default:
		}

		if err := e.election.Campaign(ctx, e.nodeID); err != nil {
			if ctx.Err() != nil {
				return
			}
			e.log.Warn("leader: campaign failed, retrying", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		e.log.Info("leader: elected", zap.String("node_id", e.nodeID))
		atomic.StoreInt32(&e.isLeader, 1)

		select {
		case <-ctx.Done():
			return
		case <-e.session.Done():
		}
		atomic.StoreInt32(&e.isLeader, 0)
		e.log.Warn("leader: lost leadership")
	}
}

// IsLeader reports whether this node currently holds the election. Safe to
// call from the orchestrator's tick loop without locking.
func (e *Elector) IsLeader() bool {
	return atomic.LoadInt32(&e.isLeader) == 1
}

// Close stops campaigning, resigns if leading, and releases the etcd
// session and client.
func (e *Elector) Close() error {
	if e.cancel != nil {
		e.cancel()
	}
	if e.IsLeader() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.election.Resign(ctx)
	}
	atomic.StoreInt32(&e.isLeader, 0)
	_ = e.session.Close()
	return e.client.Close()
}
