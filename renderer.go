package main

import (
	"errors"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/mpingram/chip8/cpu"
)

const vertexShaderSource = `
#version 410
in vec2 position;
in vec2 texCoord;
out vec2 fragTexCoord;
void main() {
	fragTexCoord = texCoord;
	gl_Position = vec4(position, 0.0, 1.0);
}
` + "\x00"

const fragmentShaderSource = `
#version 410
uniform sampler2D screen;
uniform vec3 onColor;
uniform vec3 offColor;
in vec2 fragTexCoord;
out vec4 outColor;
void main() {
	float lit = texture(screen, fragTexCoord).r;
	outColor = vec4(mix(offColor, onColor, lit), 1.0);
}
` + "\x00"

// quad covers the whole viewport as a triangle strip. Texture row 0 is the
// top of the Chip-8 screen, so the texture is flipped vertically.
var quad = []float32{
	// x, y, u, v
	-1, 1, 0, 0,
	-1, -1, 0, 1,
	1, 1, 1, 0,
	1, -1, 1, 1,
}

// OpenGLRenderer draws the framebuffer as a texture stretched over the
// window, one texel per Chip-8 pixel.
type OpenGLRenderer struct {
	window  *glfw.Window
	program uint32
	vao     uint32
	texture uint32
	pixels  []uint8
}

// NewOpenGLRenderer compiles the shaders and sets up the screen texture.
// The window's context must be current and gl.Init must have been called.
func NewOpenGLRenderer(window *glfw.Window, on, off [3]float32) (*OpenGLRenderer, error) {
	program, err := newProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return nil, err
	}
	gl.UseProgram(program)
	gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("screen\x00")), 0)
	gl.Uniform3f(gl.GetUniformLocation(program, gl.Str("onColor\x00")), on[0], on[1], on[2])
	gl.Uniform3f(gl.GetUniformLocation(program, gl.Str("offColor\x00")), off[0], off[1], off[2])

	r := &OpenGLRenderer{
		window:  window,
		program: program,
		pixels:  make([]uint8, cpu.Width*cpu.Height),
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)

	position := uint32(gl.GetAttribLocation(program, gl.Str("position\x00")))
	gl.EnableVertexAttribArray(position)
	gl.VertexAttribPointerWithOffset(position, 2, gl.FLOAT, false, 4*4, 0)

	texCoord := uint32(gl.GetAttribLocation(program, gl.Str("texCoord\x00")))
	gl.EnableVertexAttribArray(texCoord)
	gl.VertexAttribPointerWithOffset(texCoord, 2, gl.FLOAT, false, 4*4, 2*4)

	gl.GenTextures(1, &r.texture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	// hard pixel edges when scaled up
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, cpu.Width, cpu.Height, 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(r.pixels))

	return r, nil
}

// Render uploads the framebuffer and presents it.
func (r *OpenGLRenderer) Render(screen cpu.Framebuffer) {
	for y := 0; y < cpu.Height; y++ {
		for x := 0; x < cpu.Width; x++ {
			var px uint8
			if screen[x][y] {
				px = 0xff
			}
			r.pixels[y*cpu.Width+x] = px
		}
	}

	// follow the window size; on high dpi screens this isn't the window size
	width, height := r.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(width), int32(height))

	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(r.program)
	gl.BindVertexArray(r.vao)
	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, cpu.Width, cpu.Height, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(r.pixels))
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)

	r.window.SwapBuffers()
}

func newProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return 0, errors.New(f("failed to link program: %v", log))
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, errors.New(f("failed to compile %v: %v", source, log))
	}

	return shader, nil
}
