package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/calloway/hearthside/internal/apperr"
	"github.com/calloway/hearthside/internal/auth"
	"github.com/calloway/hearthside/internal/selector"
	"github.com/calloway/hearthside/internal/store"
)

const sessionCookieName = "hearthside_session"

// RequireAuth validates the session cookie and populates AuthContext. The
// session's family preference is re-resolved against current memberships on
// every request: a stale preference (family deleted, user removed) silently
// falls back to the user's oldest family rather than failing the request.
// Users who belong to no family pass through with FamilyID 0 so they can
// still create or join one.
func RequireAuth(sessions *store.SessionStore, families *store.FamilyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			memberships, err := families.ListForUser(sess.UserID)
			if err != nil {
				logger.Error("list families for session", "user_id", sess.UserID, "error", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			}

			familyID, err := selector.Resolve(sess.FamilyID, memberships)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				// No memberships at all. Leave the family unresolved.
			case err != nil:
				logger.Error("resolve active family", "user_id", sess.UserID, "error", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			default:
				if familyID != sess.FamilyID {
					if err := sessions.UpdateFamilyID(sess.ID, familyID); err != nil {
						logger.Error("persist resolved family", "session_id", sess.ID, "error", err)
					}
				}
				member, err := families.GetMember(familyID, sess.UserID)
				if err != nil || member == nil {
					unauthorized(w)
					return
				}
				ac.FamilyID = familyID
				ac.Role = member.Role
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireFamily rejects requests whose session has no resolved family.
// Family-scoped routes sit behind it; create/join routes do not.
func RequireFamily(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FamilyID(r.Context()) == 0 {
			http.Error(w, `{"error":"no active family"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}
