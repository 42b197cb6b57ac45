package plate

// SwapRedBlueValue exchanges bits 0-7 and 16-23 of a pixel. Alpha and
// green stay where they are.
func SwapRedBlueValue(v uint32) uint32 {
	return (v & 0xFF00FF00) | ((v & 0x00FF0000) >> 16) | ((v & 0x000000FF) << 16)
}

func SwapRedBlue(pixels []uint32) {
	for i, v := range pixels {
		pixels[i] = SwapRedBlueValue(v)
	}
}
