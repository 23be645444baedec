package logfields

import "go.uber.org/zap"

func Event(val string) zap.Field {
	return zap.String("event", val)
}

func Result(val string) zap.Field {
	return zap.String("result", val)
}
