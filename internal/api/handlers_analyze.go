// handlers_analyze.go - Image submission handlers
package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/brickify/web/internal/models"
	"github.com/brickify/web/internal/uploadgate"
	"github.com/brickify/web/internal/web"
)

// MIMEMsgpack is the media type for MessagePack responses.
const MIMEMsgpack = "application/msgpack"

// AnalyzeHandlerImpl implements the AnalyzeHandler interface
type AnalyzeHandlerImpl struct {
	policy uploadgate.Policy
	log    logrus.FieldLogger
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(policy uploadgate.Policy, log logrus.FieldLogger) AnalyzeHandler {
	return &AnalyzeHandlerImpl{
		policy: policy,
		log:    log.WithField("component", "analyze"),
	}
}

// HandleAnalyzeForm accepts the analysis page's multipart form and
// re-renders the page with the outcome.
func (h *AnalyzeHandlerImpl) HandleAnalyzeForm(c echo.Context) error {
	sess := SessionFrom(c)
	if sess == nil || sess.Gate() == nil {
		return NewInternalError("no session", nil)
	}

	files, err := selectedFiles(c)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return c.Redirect(http.StatusSeeOther, "/analyze")
	}
	defer closeFiles(files)

	ctx, sub := withSubmission(c.Request().Context())
	err = sess.Gate().Select(ctx, selections(files))
	page := analyzePage(c, h.policy)
	if err == nil {
		page.Result = sub.result.Pretty()
		page.Error = ""
		return c.Render(http.StatusOK, web.PageAnalyze, page)
	}

	status := h.statusFor(err, files[0].Filename)
	// Validation and busy refusals leave the session's outcome untouched;
	// show the refusal on this response only.
	page.Error = uploadgate.UserMessage(err)
	return c.Render(status, web.PageAnalyze, page)
}

// HandleAnalyzeAPI is the script-facing variant of HandleAnalyzeForm. It
// answers with {"result": ...} as JSON, or as MessagePack when the client
// asks for it.
func (h *AnalyzeHandlerImpl) HandleAnalyzeAPI(c echo.Context) error {
	sess := SessionFrom(c)
	if sess == nil || sess.Gate() == nil {
		return NewInternalError("no session", nil)
	}

	files, err := selectedFiles(c)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return NewValidationError("image")
	}
	defer closeFiles(files)

	ctx, sub := withSubmission(c.Request().Context())
	if err := sess.Gate().Select(ctx, selections(files)); err != nil {
		msg := uploadgate.UserMessage(err)
		switch h.statusFor(err, files[0].Filename) {
		case http.StatusConflict:
			return NewConflictError(msg)
		case http.StatusUnprocessableEntity:
			return NewInvalidFileError(msg)
		default:
			return NewBadGatewayError(msg)
		}
	}

	if acceptsMsgpack(c) {
		return respondMsgpack(c, sub.result)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"result": sub.result})
}

// HandleUploadState reports the session gate's state and policy so the
// page script can restore a busy indicator after a reload.
func (h *AnalyzeHandlerImpl) HandleUploadState(c echo.Context) error {
	state := uploadgate.StateIdle
	if sess := SessionFrom(c); sess != nil && sess.Gate() != nil {
		state = sess.Gate().State()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"state":        state,
		"maxBytes":     h.policy.MaxBytes,
		"acceptPrefix": h.policy.AcceptPrefix,
	})
}

// statusFor maps a gate error to an HTTP status and logs handler failures.
// The backend's own error never reaches the user.
func (h *AnalyzeHandlerImpl) statusFor(err error, filename string) int {
	var rej *uploadgate.RejectError
	switch {
	case errors.Is(err, uploadgate.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &rej):
		return http.StatusUnprocessableEntity
	default:
		h.log.WithError(err).WithField("file", filename).Warn("analysis failed")
		return http.StatusBadGateway
	}
}

type formFile struct {
	*multipart.FileHeader
	file multipart.File
}

// selectedFiles opens every part of the "image" field. A missing field is
// an empty selection, not an error.
func selectedFiles(c echo.Context) ([]formFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, NewBadRequestError("expected multipart form", err)
		}
		return nil, NewBadRequestError("invalid multipart form", err)
	}

	headers := form.File["image"]
	files := make([]formFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeFiles(files)
			return nil, NewInternalError("failed to open uploaded file", err)
		}
		files = append(files, formFile{FileHeader: fh, file: f})
	}
	return files, nil
}

func selections(files []formFile) []models.SelectedFile {
	out := make([]models.SelectedFile, len(files))
	for i, f := range files {
		out[i] = models.SelectedFile{
			Name:        f.Filename,
			ContentType: f.Header.Get(echo.HeaderContentType),
			Size:        f.Size,
			Content:     f.file,
		}
	}
	return out
}

func closeFiles(files []formFile) {
	for _, f := range files {
		f.file.Close()
	}
}

func acceptsMsgpack(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEMsgpack)
}

func respondMsgpack(c echo.Context, result models.AnalysisResult) error {
	var decoded interface{}
	if len(result) > 0 {
		v, err := result.Decode()
		if err != nil {
			return NewInternalError("failed to decode analysis result", err)
		}
		decoded = v
	}

	data, err := msgpack.Marshal(map[string]interface{}{"result": decoded})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, MIMEMsgpack, data)
}
