package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters of a pinhole camera projection.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// NewIntrinsicsFromSize synthesizes intrinsics from image dimensions alone:
// both focal lengths equal the image width (square-pixel assumption) and the
// principal point sits at the image center. No calibration is involved.
func NewIntrinsicsFromSize(width, height int) *PinholeCameraIntrinsics {
	return &PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     float64(width),
		Fy:     float64(width),
		Ppx:    float64(width) / 2.0,
		Ppy:    float64(height) / 2.0,
	}
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return intrinsics, nil
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// PinholeCameraModel is the model of a pinhole camera with a distortion model.
type PinholeCameraModel struct {
	*PinholeCameraIntrinsics `json:"intrinsic_parameters"`
	Distortion               Distorter `json:"distortion"`
}

// DistortionMap is a function that transforms the undistorted input points (u,v) to the
// distorted points (x,y) according to the model in PinholeCameraModel.Distortion.
func (params *PinholeCameraModel) DistortionMap() func(u, v float64) (float64, float64) {
	return func(u, v float64) (float64, float64) {
		x := (u - params.Ppx) / params.Fx
		y := (v - params.Ppy) / params.Fy
		x, y = params.Distortion.Transform(x, y)
		x = x*params.Fx + params.Ppx
		y = y*params.Fy + params.Ppy
		return x, y
	}
}

// SourceUV maps the destination pixel (x, y) to its normalized source sampling
// coordinate: normalize by the intrinsics, distort, reproject through the same
// intrinsics, then blend with the identity mapping by balance. The v component
// is stored bottom-up; the resample stage assumes the same convention.
// Pure and deterministic, with no failure mode.
func (params *PinholeCameraModel) SourceUV(x, y, balance float64) r2.Point {
	w := float64(params.Width)
	h := float64(params.Height)
	xn := (x - params.Ppx) / params.Fx
	yn := (y - params.Ppy) / params.Fy
	xd, yd := params.Distortion.Transform(xn, yn)
	px := xd*params.Fx + params.Ppx
	py := yd*params.Fy + params.Ppy

	identity := r2.Point{X: x / w, Y: 1.0 - y/h}
	distorted := r2.Point{X: px / w, Y: 1.0 - py/h}
	return lerpUV(identity, distorted, balance)
}

// SourceUVCentered is the reduced-fidelity variant of SourceUV: the distortion
// polynomial is evaluated directly on centered UV with the principal point
// implicitly at the image center and no focal-length asymmetry. Less accurate
// for non-square images; same control contract.
func (params *PinholeCameraModel) SourceUVCentered(x, y, balance float64) r2.Point {
	w := float64(params.Width)
	h := float64(params.Height)
	u := x / w
	v := y / h
	xd, yd := params.Distortion.Transform(u-0.5, v-0.5)

	identity := r2.Point{X: u, Y: 1.0 - v}
	distorted := r2.Point{X: xd + 0.5, Y: 1.0 - (yd + 0.5)}
	return lerpUV(identity, distorted, balance)
}

func lerpUV(from, to r2.Point, balance float64) r2.Point {
	return from.Add(to.Sub(from).Mul(balance))
}
