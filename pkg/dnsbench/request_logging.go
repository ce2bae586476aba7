package dnsbench

import (
	"fmt"
	"os"

	"github.com/miekg/dns"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRequestLogger(path string) (*zap.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open request log file '%s': %w", path, err)
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(f), zapcore.InfoLevel)
	logger := zap.New(core)
	closer := func() error {
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closer, nil
}

func logRequest(logger *zap.Logger, workerID int, server string, o ProbeOutcome) {
	qname, qtype := "<nil>", "<nil>"
	var reqid uint16
	if o.req != nil && len(o.req.Question) > 0 {
		reqid = o.req.Id
		qname = o.req.Question[0].Name
		qtype = dns.TypeToString[o.req.Question[0].Qtype]
	}
	rcode := "<nil>"
	respid := "<nil>"
	respflags := "<nil>"
	if o.resp != nil {
		rcode = dns.RcodeToString[o.resp.Rcode]
		respid = fmt.Sprint(o.resp.Id)
		respflags = getFlags(o.resp)
	}
	logger.Info("request",
		zap.Int("worker", workerID),
		zap.String("server", server),
		zap.Uint16("reqid", reqid),
		zap.String("qname", qname),
		zap.String("qtype", qtype),
		zap.String("respid", respid),
		zap.String("rcode", rcode),
		zap.String("respflags", respflags),
		zap.Stringer("failure", o.Failure),
		zap.Int64("mismatched", o.Mismatched),
		zap.Error(o.Err),
		zap.Duration("duration", o.Duration),
	)
}

func getFlags(resp *dns.Msg) string {
	respflags := ""
	if resp.Response {
		respflags += "qr"
	}
	if resp.Authoritative {
		respflags += " aa"
	}
	if resp.Truncated {
		respflags += " tc"
	}
	if resp.RecursionDesired {
		respflags += " rd"
	}
	if resp.RecursionAvailable {
		respflags += " ra"
	}
	if resp.Zero {
		respflags += " z"
	}
	if resp.AuthenticatedData {
		respflags += " ad"
	}
	if resp.CheckingDisabled {
		respflags += " cd"
	}
	return respflags
}
