package apidocs

import (
	"github.com/getkin/kin-openapi/openapi3"
	"net/http"
)

const securitySchemeName = "bearerAuth"

// Operation 一个已注册的接口
type Operation struct {
	Method  string
	Path    string
	Summary string
	Tag     string
	Auth    bool // 是否必须登录
}

// Build 根据已注册的接口生成 OpenAPI 3 文档
func Build(title, version string, ops []Operation) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				securitySchemeName: &openapi3.SecuritySchemeRef{
					Value: openapi3.NewJWTSecurityScheme(),
				},
			},
		},
	}

	for _, op := range ops {
		operation := openapi3.NewOperation()
		operation.Summary = op.Summary
		operation.Tags = []string{op.Tag}
		operation.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("ok"))
		operation.AddResponse(http.StatusBadRequest, openapi3.NewResponse().WithDescription("请求参数错误"))
		operation.AddResponse(http.StatusInternalServerError, openapi3.NewResponse().WithDescription("系统内部异常"))
		if op.Auth {
			operation.Security = &openapi3.SecurityRequirements{
				openapi3.SecurityRequirement{securitySchemeName: []string{}},
			}
			operation.AddResponse(http.StatusUnauthorized, openapi3.NewResponse().WithDescription("未登录"))
		}
		doc.AddOperation(op.Path, op.Method, operation)
	}

	return doc
}
