package app

import (
	"net/http"

	"github.com/rentiva/veriprop/internal/handler"
	"github.com/rentiva/veriprop/internal/middleware"
	"github.com/rentiva/veriprop/internal/models"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthHandler(&handler.HealthHandler{
		RouteHandler: handler.RouteHandler{ErrHandler: app.errorHandler},
	})

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		DB:           app.DB,
		Config:       &app.Config,
		Mailer:       app.Mailer,
		Helper:       app.helper,
		ErrHandler:   app.errorHandler,
	})

	verificationHandler := handler.NewVerificationHandler(&handler.VerificationHandler{
		RequestRepo:  app.DB.VerificationRequest(),
		DocumentRepo: app.DB.VerificationDocument(),
		ActivityRepo: app.DB.Activity(),
		Engine:       app.Engine,
		Provider:     app.Provider,
		Workflow:     app.Workflow,
		FileUploader: app.FileUploader,
		Encryptor:    app.Encryptor,
		StatusCache:  app.Cache,
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
	})

	workflowHandler := handler.NewWorkflowHandler(&handler.WorkflowHandler{
		Workflow:   app.Workflow,
		ErrHandler: app.errorHandler,
	})

	mux.HandleFunc("GET /health", healthHandler.HealthCheck)

	mux.HandleFunc("POST /auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	mux.Handle("POST /verifications", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleStartVerification)))
	mux.Handle("GET /verifications/{id}", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleGetVerification)))
	mux.Handle("GET /verifications/{id}/activity", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleVerificationActivity)))
	mux.Handle("POST /verifications/{id}/documents", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleUploadDocument)))
	mux.Handle("POST /verifications/{id}/verify", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleVerifyDocument)))
	mux.Handle("GET /verifications/{id}/documents/{docID}/status", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleDocumentStatus)))
	mux.Handle("GET /customers/{id}/verification", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(verificationHandler.HandleCustomerVerification)))

	// review actions are limited to the roles that can act on a request
	reviewerRoles := []string{models.UserRolePropertyOwner, models.UserRoleAdmin}
	mux.Handle("POST /verifications/{id}/approve", middlewareRepo.RequireRole(http.HandlerFunc(workflowHandler.HandleApproveVerification), reviewerRoles...))
	mux.Handle("POST /verifications/{id}/reject", middlewareRepo.RequireRole(http.HandlerFunc(workflowHandler.HandleRejectVerification), reviewerRoles...))
	mux.Handle("POST /verifications/{id}/confirm", middlewareRepo.RequireRole(http.HandlerFunc(workflowHandler.HandleAdminVerify), models.UserRoleAdmin))
	mux.Handle("POST /verifications/{id}/request-resubmission", middlewareRepo.RequireRole(http.HandlerFunc(workflowHandler.HandleRequestResubmission), reviewerRoles...))
	mux.Handle("POST /verifications/{id}/request-additional-document", middlewareRepo.RequireRole(http.HandlerFunc(workflowHandler.HandleRequestAdditionalDocument), reviewerRoles...))
	mux.Handle("DELETE /verifications/{id}", middlewareRepo.RequireRole(http.HandlerFunc(workflowHandler.HandleDeleteVerification), models.UserRoleAdmin))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
