package cli

import (
	"strings"
	"text/template"
	"time"
)

var postTmpl = template.Must(template.New("post").Funcs(template.FuncMap{
	"join": strings.Join,
	"date": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}).Parse(postTemplate))

const postTemplate = `
=== {{.Title}} ===

ID:      {{.ID}}
Author:  {{.AuthorName}}
Status:  {{.Status}}
Created: {{date .CreatedAt}}
{{- if .Tags }}
Tags:    {{join .Tags ", "}}
{{- end}}
{{- with .Image }}
Image:   {{if .Alt}}{{.Alt}} {{end}}({{if gt (len .URL) 60}}inline data{{else}}{{.URL}}{{end}})
{{- end}}
Likes:   {{.Likes}}

{{.Content}}
{{ if .Comments }}
--- Comments ({{len .Comments}}) ---
{{- range .Comments }}
[{{.ID}}] {{.Name}} at {{date .Date}}:
  {{.Text}}
{{- end}}
{{ end -}}
`

const usage = `GophBlog Client

Usage:
  gophblog [OPTIONS] COMMAND [ARGS]

Options:
  -version          Show version information
  -server URL       Server URL (default: http://localhost:8080)
  -db PATH          Path to local session database (default: gophblog-client.db)

Commands:
  register                            Create an account and sign in
  login                               Sign in with email and password
  logout                              Revoke the token and forget the session
  status                              Show the local session
  whoami                              Ask the server who the token belongs to
  posts                               List posts
  post <id>                           Show a post with its comments
  publish [flags]                     Create a post (-title, -content, -tags, -draft, -image, -image-alt)
  edit <id> [flags]                   Update your post (-title, -content, -tags, -status, -image, -remove-image)
  like <id>                           Like a post
  comment <id> [text]                 Comment on a post
  delete <id>                         Delete your post
  delete-comment <post-id> <id>       Delete your comment
  help                                Show this help

Examples:
  gophblog register
  gophblog publish -title "Hello" -tags go,web
  gophblog edit b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5 -status draft
  gophblog --server https://blog.example.com login
`
