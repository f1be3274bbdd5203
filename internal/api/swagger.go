package api

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed openapi.yaml
var openAPISpec string

// DocsConfig configures the Swagger UI login.
type DocsConfig struct {
	OktaIssuer string
	ClientID   string
	// Scopes are preselected in the authorize dialog.
	Scopes []string
}

// RegisterDocs serves the OpenAPI document and a Swagger UI wired to Okta.
func RegisterDocs(e *echo.Echo, cfg DocsConfig) {
	e.GET("/openapi.yaml", specHandler(cfg.OktaIssuer))
	e.GET("/docs", swaggerHandler(cfg.ClientID, cfg.Scopes))
	e.GET("/docs/oauth2-redirect.html", func(c echo.Context) error {
		return c.HTML(http.StatusOK, oauthRedirectHTML)
	})
}

// specHandler substitutes {oktaIssuer} so the document itself stays tenant
// neutral.
func specHandler(oktaIssuer string) echo.HandlerFunc {
	spec := strings.ReplaceAll(openAPISpec, "{oktaIssuer}", oktaIssuer)
	return func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", []byte(spec))
	}
}

func swaggerHandler(clientID string, scopes []string) echo.HandlerFunc {
	return func(c echo.Context) error {
		redirect := c.Scheme() + "://" + c.Request().Host + "/docs/oauth2-redirect.html"
		html := strings.NewReplacer(
			"${SPEC_URL}", "/openapi.yaml",
			"${OAUTH2_REDIRECT}", redirect,
			"${CLIENT_ID}", clientID,
			"${SCOPES}", strings.Join(scopes, " "),
		).Replace(swaggerHTML)
		return c.HTML(http.StatusOK, html)
	}
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Directory Hub API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
  <script>
  window.onload = function() {
    const ui = SwaggerUIBundle({
      url: "${SPEC_URL}",
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: "BaseLayout",
      oauth2RedirectUrl: "${OAUTH2_REDIRECT}",
    });
    window.ui = ui;

    // PKCE, so no client secret
    ui.initOAuth({
      clientId: "${CLIENT_ID}",
      scopes: "${SCOPES}",
      usePkceWithAuthorizationCodeGrant: true,
    });

    const style = document.createElement('style');
    style.textContent =
      ".dialog-ux input[name=\"client_id\"],\n" +
      ".dialog-ux label[for=\"client_id\"] { display: none !important; }\n";
    document.head.appendChild(style);
  }
  </script>
</body>
</html>`

const oauthRedirectHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"/><title>OAuth2 Redirect</title></head>
<body>
<script>
if (window.opener && window.opener.swaggerUIRedirectCallback) {
  window.opener.swaggerUIRedirectCallback(window.location.href);
}
</script>
</body>
</html>`
