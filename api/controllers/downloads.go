package controllers

import (
	"net/http"
	"strings"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	"github.com/mgiraldodev/templaria-backend/internal/downloads"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// ListDownloads returns the caller's active download links.
func ListDownloads(svc downloads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "download service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		links, err := svc.ListForCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, links)
	}
}

// RedeemDownload exchanges a link id and its emailed token for a
// short-lived signed storage URL and redirects the caller to it.
func RedeemDownload(svc downloads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "download service unavailable"))
			return
		}

		linkID, err := uuidURLParam(r, "linkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token required"))
			return
		}

		url, err := svc.Redeem(r.Context(), linkID, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
