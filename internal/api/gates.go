package api

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/brickify/web/internal/models"
	"github.com/brickify/web/internal/session"
	"github.com/brickify/web/internal/uploadgate"
)

type submissionKey struct{}

// submission carries one request's analysis result back from the gate's
// handler, independent of the session's shared copy.
type submission struct {
	result models.AnalysisResult
}

func withSubmission(ctx context.Context) (context.Context, *submission) {
	sub := &submission{}
	return context.WithValue(ctx, submissionKey{}, sub), sub
}

// NewGateFactory builds each session's upload gate. The gate's handler
// submits the file to the backend with the session's token and records
// the outcome on the session.
func NewGateFactory(client Backend, policy uploadgate.Policy, log logrus.FieldLogger) session.GateFactory {
	return func(s *session.Session) *uploadgate.Gate {
		sessLog := log.WithField("session", shortID(s.ID))

		handler := func(ctx context.Context, file models.SelectedFile) error {
			s.BeginAnalysis()
			result, err := client.Analyze(ctx, s.Token(), file)
			if err != nil {
				s.SetError(uploadgate.MsgGeneric)
				return err
			}
			s.SetResult(result)
			if sub, ok := ctx.Value(submissionKey{}).(*submission); ok {
				sub.result = result
			}
			return nil
		}

		g := uploadgate.New(handler,
			uploadgate.WithPolicy(policy),
			uploadgate.WithNotifier(uploadgate.NotifierFunc(func(msg string) {
				sessLog.WithField("notice", msg).Info("user notified")
			})),
		)
		g.OnStateChange(func(from, to uploadgate.State) {
			sessLog.WithFields(logrus.Fields{"from": from, "to": to}).Debug("upload gate transition")
		})
		return g
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
