package app

import (
	"bytes"
	"context"

	"growskill/internal/util"
	"growskill/pkg/document"
)

// CertificateFilename is the fixed local name of the downloaded certificate.
const CertificateFilename = "certificate.pdf"

// CertificateResult describes a downloaded certificate.
type CertificateResult struct {
	Path  string
	Pages int
	// ShareURL is set when the certificate was handed to the sharer.
	ShareURL string
}

// Message is the confirmation shown to the user.
func (r CertificateResult) Message() string {
	if r.ShareURL != "" {
		return "Certificate shared: " + r.ShareURL
	}
	return "Certificate saved to local storage."
}

// DownloadCertificate requests the completion certificate and stores it
// under the fixed filename. Nothing is written unless the whole document
// arrived. The file is then shared when a sharer is configured.
func (t *Tracker) DownloadCertificate(ctx context.Context) (CertificateResult, error) {
	course, err := t.requireFinished("the certificate")
	if err != nil {
		return CertificateResult{}, err
	}
	token, err := t.app.requireToken(ctx, "")
	if err != nil {
		return CertificateResult{}, err
	}
	callCtx, done := t.callContext(ctx)
	defer done()
	logger := util.LoggerFromContext(ctx)

	data, err := t.app.api.Certificate(callCtx, token, course.Title)
	if err != nil {
		if t.isClosed() {
			return CertificateResult{}, ErrViewClosed
		}
		logger.Warn("certificate download failed", "course_id", t.courseID, "err", err)
		return CertificateResult{}, notice("Error", "Failed to download certificate", err)
	}
	if t.isClosed() {
		return CertificateResult{}, ErrViewClosed
	}

	var result CertificateResult
	if info, err := document.InspectPDF(data); err != nil {
		logger.Warn("certificate is not a readable pdf", "course_id", t.courseID, "err", err)
	} else {
		result.Pages = info.Pages
		logger.Info("certificate received", "course_id", t.courseID, "pages", info.Pages, "first_page", info.FirstPageText)
	}
	path, err := t.app.documents.Save(CertificateFilename, bytes.NewReader(data))
	if err != nil {
		return CertificateResult{}, notice("Error", "Failed to download certificate", err)
	}
	result.Path = path

	if t.app.sharer == nil {
		return result, nil
	}
	url, err := t.app.sharer.Share(callCtx, path, "application/pdf")
	if err != nil {
		logger.Warn("share certificate failed", "path", path, "err", err)
		return result, nil
	}
	result.ShareURL = url
	return result, nil
}
