package gogen

import (
	"go/token"
	"strings"

	"github.com/hamba/avro/v2"
	"go.trai.ch/zerr"
)

// Protocol is a protocol whose types have been parsed.
type Protocol struct {
	Name      string
	Namespace string
	Doc       string
	// JSON is the protocol declaration embedded in the generated file.
	JSON     string
	Messages []Message
}

// Message is one protocol message.
type Message struct {
	Name string
	Doc  string
	// Params are the request parameters in declaration order.
	Params []Param
	// Response is nil or the null schema for messages without a result.
	Response avro.Schema
	Errors   []string
	OneWay   bool
}

// Param is one request parameter.
type Param struct {
	Name string
	Type avro.Schema
}

type paramData struct {
	Name string
	Type string
}

type methodData struct {
	Name   string
	Doc    []string
	Params []paramData
	Result string
}

type protocolData struct {
	Name      string
	FullName  string
	Doc       []string
	Methods   []methodData
	JSONConst string
	JSON      string
}

// Protocol writes the file of a protocol and returns its path.
func (g *Generator) Protocol(p Protocol) (string, error) {
	f := newFile(p.Namespace, g.opts)
	f.use("context", "")

	name := TypeName(p.Name)
	fullName := p.Name
	if p.Namespace != "" {
		fullName = p.Namespace + "." + p.Name
	}
	data := protocolData{
		Name:      name,
		FullName:  fullName,
		Doc:       docLines(name, p.Doc),
		JSONConst: name + "ProtocolJSON",
		JSON:      p.JSON,
	}

	for _, msg := range p.Messages {
		method := methodData{Name: TypeName(msg.Name)}
		if msg.Doc != "" {
			method.Doc = docLines(method.Name, msg.Doc)
		}
		if msg.OneWay {
			method.Doc = append(method.Doc, method.Name+" is one-way: the caller does not wait for a reply.")
		}
		if len(msg.Errors) > 0 {
			method.Doc = append(method.Doc, method.Name+" may fail with "+strings.Join(msg.Errors, ", ")+".")
		}
		used := map[string]bool{"ctx": true}
		for _, param := range msg.Params {
			ident := paramName(param.Name)
			for used[ident] {
				ident += "_"
			}
			used[ident] = true
			method.Params = append(method.Params, paramData{Name: ident, Type: f.goType(param.Type)})
		}
		if msg.Response != nil && msg.Response.Type() != avro.Null {
			method.Result = f.goType(msg.Response)
		}
		data.Methods = append(data.Methods, method)
	}

	path := g.Path(p.Namespace, p.Name+"Protocol")
	if err := g.render(path, "protocol", f, map[string]any{"Protocol": data}); err != nil {
		return "", zerr.With(err, "protocol", fullName)
	}
	return path, nil
}

func paramName(name string) string {
	ident := unexported(TypeName(name))
	if token.IsKeyword(strings.TrimSuffix(ident, "_")) || ident == "ctx" {
		return strings.TrimSuffix(ident, "_") + "Arg"
	}
	return ident
}
