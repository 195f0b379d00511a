package ws

import (
	"errors"

	"github.com/go-viper/mapstructure/v2"
)

var ErrEmptyBody = errors.New("ws request body is nil")

// Bind 把 WsMsgReq.Body.Msg（json 解出的 map）按 json 标签解码到目标结构体，数字字符串可以落到数值字段。
func Bind(req *WsMsgReq, dst any) error {
	if req == nil || req.Body == nil {
		return ErrEmptyBody
	}
	if req.Body.Msg == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(req.Body.Msg)
}
