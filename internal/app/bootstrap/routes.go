// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authnfeature "github.com/wirastama/manpro/internal/app/features/authn"
	commentsfeature "github.com/wirastama/manpro/internal/app/features/comments"
	groupsfeature "github.com/wirastama/manpro/internal/app/features/groups"
	healthfeature "github.com/wirastama/manpro/internal/app/features/health"
	membersfeature "github.com/wirastama/manpro/internal/app/features/members"
	projectsfeature "github.com/wirastama/manpro/internal/app/features/projects"
	subtasksfeature "github.com/wirastama/manpro/internal/app/features/subtasks"
	tasksfeature "github.com/wirastama/manpro/internal/app/features/tasks"
	workspacesfeature "github.com/wirastama/manpro/internal/app/features/workspaces"
	"github.com/wirastama/manpro/internal/app/policy/workspacepolicy"
	commentstore "github.com/wirastama/manpro/internal/app/store/comments"
	groupstore "github.com/wirastama/manpro/internal/app/store/groups"
	projectstore "github.com/wirastama/manpro/internal/app/store/projects"
	subtaskstore "github.com/wirastama/manpro/internal/app/store/subtasks"
	taskstore "github.com/wirastama/manpro/internal/app/store/tasks"
	userstore "github.com/wirastama/manpro/internal/app/store/users"
	workspacestore "github.com/wirastama/manpro/internal/app/store/workspaces"
	"github.com/wirastama/manpro/internal/app/system/auth"
	"github.com/wirastama/manpro/internal/app/system/hierarchy"
	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/app/system/identity"
	"github.com/wirastama/manpro/internal/app/system/mailer"
	"github.com/wirastama/manpro/internal/app/system/membership"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Everything here is pure wiring: build the
// stores, the shared system services on top of them, the feature handlers on
// top of those, then mount the routers.
//
// Three groups of routes stay outside the bearer-token middleware: health,
// register/login, and the invite verify/accept endpoints, where the invite
// token itself is the credential.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Error responses include details only in dev.
	httpjson.SetDevMode(coreCfg.Env == "dev")

	db := deps.MongoDatabase

	users := userstore.New(db)
	workspaces := workspacestore.New(db)
	projects := projectstore.New(db)
	groups := groupstore.New(db)
	tasks := taskstore.New(db)
	subtasks := subtaskstore.New(db)
	comments := commentstore.New(db)

	resolver := hierarchy.New(workspaces, projects, groups, tasks, subtasks, comments)
	guard := workspacepolicy.New(resolver)
	members := membership.New(deps.MongoClient, db, logger)
	idresolver := identity.New(users)
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
	}, logger)
	tokens := auth.NewManager(appCfg.TokenSecret, appCfg.TokenExpiry, logger)

	authnHandler := authnfeature.NewHandler(users, tokens, logger)
	workspaceHandler := workspacesfeature.NewHandler(workspaces, users, guard, members, idresolver, mail, appCfg.BaseURL, logger)
	memberHandler := membersfeature.NewHandler(users, guard, members, logger)
	projectHandler := projectsfeature.NewHandler(projects, guard, logger)
	groupHandler := groupsfeature.NewHandler(groups, guard, logger)
	taskHandler := tasksfeature.NewHandler(tasks, users, guard, resolver, members, idresolver, mail, appCfg.BaseURL, logger)
	subtaskHandler := subtasksfeature.NewHandler(subtasks, users, guard, resolver, members, idresolver, mail, appCfg.BaseURL, logger)
	commentHandler := commentsfeature.NewHandler(comments, guard, logger)

	r := chi.NewRouter()

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Mount("/auth", authnfeature.Routes(authnHandler))

	// Unauthenticated invite endpoints; the token is the credential.
	r.Mount("/workspaces/invite", workspacesfeature.PublicRoutes(workspaceHandler))
	tasksfeature.PublicRoutes(r, taskHandler)
	subtasksfeature.PublicRoutes(r, subtaskHandler)

	// Everything else requires a bearer token resolving to a live account.
	r.Group(func(r chi.Router) {
		r.Use(tokens.Authenticate(users))

		r.Mount("/workspaces", workspacesfeature.Routes(
			workspaceHandler,
			membersfeature.Routes(memberHandler),
			projectsfeature.WorkspaceRoutes(projectHandler),
		))
		r.Mount("/projects", projectsfeature.Routes(
			projectHandler,
			groupsfeature.ProjectRoutes(groupHandler),
		))
		r.Mount("/groups", groupsfeature.Routes(
			groupHandler,
			tasksfeature.GroupRoutes(taskHandler),
		))
		r.Mount("/tasks", tasksfeature.Routes(
			taskHandler,
			subtasksfeature.TaskRoutes(subtaskHandler),
			commentsfeature.TaskRoutes(commentHandler),
		))
		r.Mount("/subtasks", subtasksfeature.Routes(subtaskHandler))
		r.Mount("/comments", commentsfeature.Routes(commentHandler))
	})

	return r, nil
}
