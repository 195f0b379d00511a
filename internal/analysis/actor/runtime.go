package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	protoactor "github.com/asynkron/protoactor-go/actor"

	"Vic2Economy/internal/analysis/actors"
	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/messages"
	"Vic2Economy/modules/kit/errx"
)

const defaultAskTimeout = 3 * time.Second

type Options struct {
	AskTimeout  time.Duration
	MaxSessions int
	// IdleTimeout>0 时空闲会话自动回收
	IdleTimeout time.Duration
}

// Runtime 是 actor 系统对外的入口，实现 port.Sessions。
type Runtime struct {
	system  *protoactor.ActorSystem
	root    *protoactor.RootContext
	manager *protoactor.PID
	timeout time.Duration
}

func NewRuntime(opts Options) *Runtime {
	if opts.AskTimeout <= 0 {
		opts.AskTimeout = defaultAskTimeout
	}

	// ActorSystem 管理 PID、调度、邮箱；root 是系统外部对 actor 的操作入口。
	system := protoactor.NewActorSystem()
	root := system.Root
	// manager 只做路由和登记，不干重活
	managerProps := protoactor.PropsFromProducer(func() protoactor.Actor {
		return actors.NewManagerActor(opts.MaxSessions, opts.IdleTimeout)
	})
	manager := root.Spawn(managerProps)

	return &Runtime{
		system:  system,
		root:    root,
		manager: manager,
		timeout: opts.AskTimeout,
	}
}

func (r *Runtime) Shutdown() {
	if r == nil {
		return
	}
	if r.root != nil && r.manager != nil {
		_ = r.root.StopFuture(r.manager).Wait()
	}
	if r.system != nil {
		r.system.Shutdown()
	}
}

func (r *Runtime) Open(ctx context.Context, s *entity.Session) error {
	_, err := r.request(ctx, &messages.OpenSession{Session: s})
	return err
}

func (r *Runtime) Close(ctx context.Context, id entity.SessionID) error {
	_, err := r.request(ctx, &messages.CloseSession{SessionBase: messages.SessionBase{Session: id}})
	return err
}

func (r *Runtime) List(ctx context.Context) ([]entity.LoadStatus, error) {
	res, err := r.request(ctx, &messages.ListSessions{})
	if err != nil {
		return nil, err
	}
	reply, ok := res.(*messages.ListReply)
	if !ok {
		return nil, errx.ErrInternal.WithData("reply_type", typeName(res))
	}
	return reply.Sessions, nil
}

// Ask 经 manager 转发给会话 actor，等待它的回复。
func (r *Runtime) Ask(ctx context.Context, msg messages.SessionMessage) (any, error) {
	return r.request(ctx, msg)
}

func (r *Runtime) request(ctx context.Context, msg any) (any, error) {
	if r == nil || r.root == nil {
		return nil, errx.ErrUnavailable.WithData("reason", "actor runtime 未初始化")
	}

	// RequestFuture 注册一个 future PID 作为 Sender；Result 阻塞到对方 Respond 或超时
	future := r.root.RequestFuture(r.manager, msg, r.timeoutFromContext(ctx))
	res, err := future.Result()
	if err != nil {
		if errors.Is(err, protoactor.ErrTimeout) {
			return nil, errx.ErrTimeout.WithCause(err).WithData("msg_type", typeName(msg))
		}
		return nil, errx.ErrUnavailable.WithCause(err).WithData("msg_type", typeName(msg))
	}
	if f, ok := res.(*messages.Failure); ok {
		return nil, f.Err
	}
	return res, nil
}

// timeoutFromContext 取 ctx 剩余时间和默认超时中较小的一个。
func (r *Runtime) timeoutFromContext(ctx context.Context) time.Duration {
	if r.timeout <= 0 {
		return defaultAskTimeout
	}
	if ctx == nil {
		return r.timeout
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return r.timeout
	}
	remain := time.Until(deadline)
	if remain <= 0 {
		return time.Millisecond
	}
	return min(remain, r.timeout)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
