package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gic/cashtransfer/docs"
)

func SetupSwagger(router *gin.Engine) {
	router.GET("/swagger/*any", func(c *gin.Context) {
		switch c.Param("any") {
		case "/doc.json":
			c.Data(http.StatusOK, "application/json; charset=utf-8", docs.SwaggerJSON)
		case "/", "/index.html":
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerUIHTML))
		default:
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		}
	})
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>GIC CashTransfer - API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger/doc.json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout"
    });
  </script>
</body>
</html>`
