package jp2meta

// Exif tag names per group, keyed by TIFF tag ID. The groups follow the IFD
// layout: Image is IFD0, Photo the Exif sub-IFD, GPSInfo the GPS sub-IFD.

const (
	exifGroupImage   = "Image"
	exifGroupPhoto   = "Photo"
	exifGroupGPSInfo = "GPSInfo"
)

const (
	tagExifIFDPointer = 0x8769
	tagGPSInfoPointer = 0x8825
)

var exifImageFields = map[uint16]string{
	0x0100: "ImageWidth",
	0x0101: "ImageLength",
	0x0102: "BitsPerSample",
	0x0103: "Compression",
	0x010e: "ImageDescription",
	0x010f: "Make",
	0x0110: "Model",
	0x0112: "Orientation",
	0x011a: "XResolution",
	0x011b: "YResolution",
	0x0128: "ResolutionUnit",
	0x0131: "Software",
	0x0132: "DateTime",
	0x013b: "Artist",
	0x013e: "WhitePoint",
	0x0213: "YCbCrPositioning",
	0x8298: "Copyright",
}

var exifPhotoFields = map[uint16]string{
	0x829a: "ExposureTime",
	0x829d: "FNumber",
	0x8822: "ExposureProgram",
	0x8827: "ISOSpeedRatings",
	0x9000: "ExifVersion",
	0x9003: "DateTimeOriginal",
	0x9004: "DateTimeDigitized",
	0x9201: "ShutterSpeedValue",
	0x9202: "ApertureValue",
	0x9204: "ExposureBiasValue",
	0x9205: "MaxApertureValue",
	0x9207: "MeteringMode",
	0x9209: "Flash",
	0x920a: "FocalLength",
	0x9286: "UserComment",
	0xa002: "PixelXDimension",
	0xa003: "PixelYDimension",
	0xa405: "FocalLengthIn35mmFilm",
	0xa420: "ImageUniqueID",
}

var exifGPSFields = map[uint16]string{
	0x0000: "GPSVersionID",
	0x0001: "GPSLatitudeRef",
	0x0002: "GPSLatitude",
	0x0003: "GPSLongitudeRef",
	0x0004: "GPSLongitude",
	0x0005: "GPSAltitudeRef",
	0x0006: "GPSAltitude",
	0x0007: "GPSTimeStamp",
	0x001d: "GPSDateStamp",
}

var (
	exifFieldsByGroup = map[string]map[uint16]string{
		exifGroupImage:   exifImageFields,
		exifGroupPhoto:   exifPhotoFields,
		exifGroupGPSInfo: exifGPSFields,
	}
	exifTagsByGroup = map[string]map[string]uint16{}
)

func init() {
	for group, fields := range exifFieldsByGroup {
		byName := make(map[string]uint16, len(fields))
		for tag, name := range fields {
			byName[name] = tag
		}
		exifTagsByGroup[group] = byName
	}
}
