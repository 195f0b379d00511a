package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/analysis/interfaces/handler"
	"Vic2Economy/internal/analysis/interfaces/handler/dto"
	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/shared/transport"
	transportgrpc "Vic2Economy/internal/shared/transport/grpc"
)

const (
	ServiceName = "vic2.analysis.AnalysisService"

	// 上传流的文件名和编码放在 metadata 里
	MetaFileName = "x-save-name"
	MetaEncoding = "x-save-encoding"
)

// AnalysisServer 的请求和响应都是 google.protobuf.Struct，字段名与 HTTP 接口的 JSON 一致。
type AnalysisServer interface {
	Upload(stream gogrpc.ServerStream) error
	Production(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Population(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	PopNeeds(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Enemies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Sessions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CloseSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Report(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServer)(nil),
	Methods: []gogrpc.MethodDesc{
		unary("Production", AnalysisServer.Production),
		unary("Population", AnalysisServer.Population),
		unary("PopNeeds", AnalysisServer.PopNeeds),
		unary("Enemies", AnalysisServer.Enemies),
		unary("Sessions", AnalysisServer.Sessions),
		unary("CloseSession", AnalysisServer.CloseSession),
		unary("Report", AnalysisServer.Report),
	},
	Streams: []gogrpc.StreamDesc{{
		StreamName:    "Upload",
		ClientStreams: true,
		Handler: func(srv any, stream gogrpc.ServerStream) error {
			return srv.(AnalysisServer).Upload(stream)
		},
	}},
}

func unary(name string, call func(AnalysisServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) gogrpc.MethodDesc {
	return gogrpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AnalysisServer), ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(AnalysisServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

type GrpcHandler struct {
	analysis *handler.Analysis
}

func NewGrpcHandler(a *handler.Analysis) *GrpcHandler {
	return &GrpcHandler{analysis: a}
}

func (h *GrpcHandler) Register(s gogrpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

// Upload 边收分块边解码，流结束后返回会话状态。
func (h *GrpcHandler) Upload(stream gogrpc.ServerStream) error {
	ctx := stream.Context()
	in := app.DecodeInput{FileName: "upload.v2"}
	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		if v := md.Get(MetaFileName); len(v) > 0 && v[0] != "" {
			in.FileName = v[0]
		}
		if v := md.Get(MetaEncoding); len(v) > 0 {
			in.Encoding = v[0]
		}
	}

	pr, pw := io.Pipe()
	go func() {
		for {
			chunk := new(wrapperspb.BytesValue)
			if err := stream.RecvMsg(chunk); err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				_ = pw.CloseWithError(err)
				return
			}
			if _, err := pw.Write(chunk.GetValue()); err != nil {
				return
			}
		}
	}()
	in.Reader = pr

	status, err := h.analysis.Service.Decode(ctx, in, nil)
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return h.error(ctx, err)
	}
	transport.AddField(ctx, zap.String("session_id", status.SessionID))
	out, err := toStruct(status)
	if err != nil {
		return h.error(ctx, err)
	}
	return stream.SendMsg(out)
}

func (h *GrpcHandler) Production(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req app.ProductionInput
	id, err := session(ctx, in, &req)
	if err != nil {
		return nil, err
	}
	out, err := h.analysis.Service.Production(ctx, id, req)
	return h.reply(ctx, out, err)
}

func (h *GrpcHandler) Population(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req app.PopulationInput
	id, err := session(ctx, in, &req)
	if err != nil {
		return nil, err
	}
	out, err := h.analysis.Service.Population(ctx, id, req)
	return h.reply(ctx, out, err)
}

func (h *GrpcHandler) PopNeeds(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req economy.PopNeedsQuery
	id, err := session(ctx, in, &req)
	if err != nil {
		return nil, err
	}
	out, err := h.analysis.Service.PopNeeds(ctx, id, req)
	return h.reply(ctx, out, err)
}

func (h *GrpcHandler) Enemies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req app.EnemiesInput
	id, err := session(ctx, in, &req)
	if err != nil {
		return nil, err
	}
	out, err := h.analysis.Service.Enemies(ctx, id, req)
	return h.reply(ctx, out, err)
}

func (h *GrpcHandler) Sessions(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := h.analysis.Service.Sessions(ctx)
	return h.reply(ctx, map[string]any{"sessions": list}, err)
}

func (h *GrpcHandler) CloseSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := session(ctx, in)
	if err != nil {
		return nil, err
	}
	err = h.analysis.Service.CloseSession(ctx, id)
	return h.reply(ctx, map[string]any{"session_id": id}, err)
}

func (h *GrpcHandler) Report(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var q dto.ReportQuery
	if err := bind(in, &q); err != nil || q.ReportID == "" {
		return nil, transportgrpc.StatusError(transport.InvalidParam, "参数有误")
	}
	r, err := h.analysis.Service.Report(ctx, q.ReportID)
	return h.reply(ctx, r, err)
}

func (h *GrpcHandler) reply(ctx context.Context, out any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, h.error(ctx, err)
	}
	s, err := toStruct(out)
	if err != nil {
		return nil, h.error(ctx, err)
	}
	return s, nil
}

func (h *GrpcHandler) error(ctx context.Context, err error) error {
	code, msg := h.analysis.HandleError(ctx, err)
	return transportgrpc.StatusError(code, msg)
}

// session 取出 session_id 记到 access 日志，其余字段解码到 dst。
func session(ctx context.Context, in *structpb.Struct, dst ...any) (string, error) {
	var q dto.SessionQuery
	if err := bind(in, append([]any{&q}, dst...)...); err != nil || q.SessionID == "" {
		return "", transportgrpc.StatusError(transport.InvalidParam, "参数有误")
	}
	transport.AddField(ctx, zap.String("session_id", q.SessionID))
	return q.SessionID, nil
}

// bind 把 Struct 按 json 标签依次解码到每个目标，多余字段忽略。
func bind(in *structpb.Struct, dst ...any) error {
	m := in.AsMap()
	for _, d := range dst {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           d,
		})
		if err != nil {
			return err
		}
		if err := dec.Decode(m); err != nil {
			return err
		}
	}
	return nil
}

// toStruct 经 JSON 转成 Struct，json.RawMessage 字段（报告结果）会展开成嵌套对象。
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, app.ErrInternal.WithCause(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, app.ErrInternal.WithCause(err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, app.ErrInternal.WithCause(err)
	}
	return s, nil
}
