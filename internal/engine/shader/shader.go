// Package shader compiles the embedded GLSL programs used by the instanced
// vegetation and terrain pipelines.
package shader

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

//go:embed glsl/*.vert glsl/*.frag
var sources embed.FS

// Names lists the embedded programs that have both stages.
func Names() []string {
	verts, _ := fs.Glob(sources, "glsl/*.vert")
	var names []string
	for _, v := range verts {
		name := strings.TrimSuffix(path.Base(v), ".vert")
		if _, err := fs.Stat(sources, "glsl/"+name+".frag"); err == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Source returns the vertex and fragment source of a named program.
func Source(name string) (vertex, fragment string, err error) {
	v, err := sources.ReadFile("glsl/" + name + ".vert")
	if err != nil {
		return "", "", fmt.Errorf("shader %q: %w", name, err)
	}
	f, err := sources.ReadFile("glsl/" + name + ".frag")
	if err != nil {
		return "", "", fmt.Errorf("shader %q: %w", name, err)
	}
	return string(v), string(f), nil
}

// Program is a linked GL program with a uniform location cache.
type Program struct {
	Name string
	ID   uint32

	uniforms map[string]int32
}

// Load compiles and links the named embedded program.
func Load(name string) (*Program, error) {
	v, f, err := Source(name)
	if err != nil {
		return nil, err
	}
	id, err := CompileProgram(v, f)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", name, err)
	}
	return &Program{Name: name, ID: id, uniforms: make(map[string]int32)}, nil
}

// Use makes the program current.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Uniform returns the location of a uniform, or -1 when the program has no
// active uniform of that name. Lookups are cached.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

// Release deletes the GL program.
func (p *Program) Release() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
	clear(p.uniforms)
}

// CompileProgram compiles both stages and links them.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vert, err := compileStage(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vert)

	frag, err := compileStage(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		msg := infoLog(program, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", msg)
	}
	return program, nil
}

func compileStage(source string, stage uint32, label string) (uint32, error) {
	sh := gl.CreateShader(stage)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(sh, 1, csource, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		msg := infoLog(sh, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("%s stage: %s", label, msg)
	}
	return sh, nil
}

// infoLog reads a shader or program info log through the matching getters.
func infoLog(
	obj uint32,
	getiv func(uint32, uint32, *int32),
	getLog func(uint32, int32, *int32, *uint8),
) string {
	var n int32
	getiv(obj, gl.INFO_LOG_LENGTH, &n)
	if n <= 1 {
		return "no info log"
	}
	buf := make([]byte, n)
	getLog(obj, n, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}
